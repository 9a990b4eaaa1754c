// Package authz evaluates access to tenant resources with a single Casbin-backed policy.
// Every endpoint asks the same question through Policy.Evaluate: may this actor, with this
// role in this tenant, perform this action on a resource of that tenant (owned by someone)?
package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/google/uuid"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Role is the actor's role inside its tenant.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleClient     Role = "client"
	RoleTeamMember Role = "team_member"
	RoleViewer     Role = "viewer"
)

// ParseRole maps a claim value onto a known role.
func ParseRole(raw string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleAdmin, RoleClient, RoleTeamMember, RoleViewer:
		return r, true
	default:
		return "", false
	}
}

// Action names an operation guarded by the policy.
type Action string

const (
	ActionMatchRun         Action = "match:run"
	ActionInfluencerSearch Action = "influencer:search"
	ActionInfluencerRead   Action = "influencer:read"
	ActionInfluencerWrite  Action = "influencer:write"
	ActionBrandRead        Action = "brand:read"
)

// ErrAccessDenied is returned by Decision.Err for a denied request.
var ErrAccessDenied = errors.New("access denied")

// Request is the full input of one access decision.
type Request struct {
	Role           Role
	ActorID        string
	ActorTenant    uuid.UUID
	ResourceTenant uuid.UUID
	// ResourceOwner is empty for resources without an owner.
	ResourceOwner string
	Action        Action
}

// Decision is the outcome of Evaluate.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err returns nil for an allowed decision and ErrAccessDenied otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrAccessDenied, d.Reason)
}

// Evaluator is the access-decision capability services depend on.
type Evaluator interface {
	Evaluate(req Request) Decision
}

// Config selects the policy source. An empty PolicyPath uses the embedded policy.
type Config struct {
	PolicyPath string
	// Observe, when set, is called with every decision.
	Observe func(req Request, d Decision)
}

// Policy is safe for concurrent use.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
	observe  func(req Request, d Decision)
}

// New loads the model and policy and returns a ready Policy.
func New(cfg Config) (*Policy, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" {
		if _, statErr := os.Stat(cfg.PolicyPath); statErr != nil {
			return nil, fmt.Errorf("policy file: %w", statErr)
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadPolicyLines(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	return &Policy{enforcer: enforcer, observe: cfg.Observe}, nil
}

// Evaluate decides one request. Missing tenants, unknown roles and enforcer failures deny.
func (p *Policy) Evaluate(req Request) Decision {
	d := p.evaluate(req)
	if p.observe != nil {
		p.observe(req, d)
	}
	return d
}

func (p *Policy) evaluate(req Request) Decision {
	if req.ActorTenant == uuid.Nil {
		return Decision{Reason: "actor has no tenant"}
	}
	if req.ResourceTenant == uuid.Nil {
		return Decision{Reason: "resource has no tenant"}
	}
	if req.ActorTenant != req.ResourceTenant {
		return Decision{Reason: "resource belongs to another tenant"}
	}
	if _, ok := ParseRole(string(req.Role)); !ok {
		return Decision{Reason: fmt.Sprintf("unknown role %q", req.Role)}
	}

	allowed, err := p.enforcer.Enforce(
		string(req.Role),
		string(req.Action),
		req.ActorTenant.String(),
		req.ResourceTenant.String(),
		req.ActorID,
		req.ResourceOwner,
	)
	if err != nil {
		return Decision{Reason: fmt.Sprintf("policy evaluation failed: %v", err)}
	}
	if !allowed {
		return Decision{Reason: fmt.Sprintf("role %s may not %s", req.Role, req.Action)}
	}
	return Decision{Allowed: true, Reason: "allowed"}
}

// loadPolicyLines adds "p, ..." rows from CSV text, skipping blanks and comments.
func loadPolicyLines(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] != "p" || len(parts) != 4 {
			return fmt.Errorf("malformed policy line %q", line)
		}

		if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
			return fmt.Errorf("add policy %v: %w", parts[1:], err)
		}
	}
	return nil
}
