package root

import (
	"github.com/taippa-io/taippa/apps/cli/cmd/auth"
	"github.com/taippa-io/taippa/apps/cli/cmd/bootstrap"
	"github.com/taippa-io/taippa/apps/cli/cmd/brand"
	"github.com/taippa-io/taippa/apps/cli/cmd/influencer"
	tenantcmd "github.com/taippa-io/taippa/apps/cli/cmd/tenant"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(tenantcmd.Command())
	Root().AddCommand(brand.Command())
	Root().AddCommand(influencer.Command())
}
