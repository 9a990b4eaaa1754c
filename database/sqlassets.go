package sqlassets

import _ "embed"

//go:embed schema/tenants.sql
var TenantsSQL string

//go:embed schema/brands.sql
var BrandsSQL string

//go:embed schema/influencers.sql
var InfluencersSQL string
