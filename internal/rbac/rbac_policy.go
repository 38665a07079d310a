package rbac

import (
	"fmt"
	"os"
	"strings"

	"go-timeoff/internal/domain"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"gopkg.in/yaml.v3"
)

const modelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

type RolePolicy struct {
	Inherits    []string `yaml:"inherits"`
	Permissions []string `yaml:"permissions"`
}

type Policy struct {
	Roles map[string]RolePolicy `yaml:"roles"`
}

func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rbac policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy rejects unknown roles, malformed permissions and inheritance
// from roles that are not declared.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse rbac policy: %w", err)
	}
	if len(p.Roles) == 0 {
		return nil, fmt.Errorf("rbac policy declares no roles")
	}

	for name, role := range p.Roles {
		if !domain.Role(name).Valid() {
			return nil, fmt.Errorf("rbac policy: unknown role %q", name)
		}
		for _, parent := range role.Inherits {
			if _, ok := p.Roles[parent]; !ok {
				return nil, fmt.Errorf("rbac policy: role %q inherits undeclared role %q", name, parent)
			}
		}
		for _, perm := range role.Permissions {
			if _, _, err := splitPermission(perm); err != nil {
				return nil, fmt.Errorf("rbac policy: role %q: %w", name, err)
			}
		}
	}
	return &p, nil
}

func splitPermission(perm string) (string, string, error) {
	resource, action, ok := strings.Cut(perm, ":")
	if !ok || resource == "" || action == "" {
		return "", "", fmt.Errorf("permission %q must be resource:action", perm)
	}
	return resource, action, nil
}

// NewEnforcer builds an in-memory enforcer holding the role permissions and
// the role inheritance edges of p. Employee assignments are added by Service.
func NewEnforcer(p *Policy) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for name, role := range p.Roles {
		for _, perm := range role.Permissions {
			resource, action, _ := splitPermission(perm)
			if _, err := e.AddPolicy(name, resource, action); err != nil {
				return nil, err
			}
		}
		for _, parent := range role.Inherits {
			if _, err := e.AddGroupingPolicy(name, parent); err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}
