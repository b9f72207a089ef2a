package family

import "github.com/smartinventory/smartinventory-backend/pkg/permissions"

// Demo family
const (
	DemoFamilyID   = "family_demo"
	DemoFamilyName = "데모 가족"
	DemoFamilyCode = "DEMO2024"
)

type demoUser struct {
	id       string
	username string
	password string
	role     string
	avatar   string
	email    string
}

var demoUsers = []demoUser{
	{"user_admin", "관리자", "admin123", permissions.RoleAdmin, "👨‍💼", "admin@demo.family"},
	{"user_mom", "엄마", "mom123", permissions.RoleParent, "👩‍🍳", ""},
	{"user_dad", "아빠", "dad123", permissions.RoleParent, "👨‍💼", ""},
	{"user_child1", "첫째", "child123", permissions.RoleChild, "👧", ""},
	{"user_child2", "둘째", "child123", permissions.RoleChild, "👦", ""},
}

// SeedDemo adds the demo family and its five members.
func (d *Directory) SeedDemo() error {
	d.AddFamily(Family{ID: DemoFamilyID, Name: DemoFamilyName, Code: DemoFamilyCode})
	for _, u := range demoUsers {
		_, err := d.register(u.id, NewUser{
			FamilyID: DemoFamilyID,
			Username: u.username,
			Password: u.password,
			Role:     u.role,
			Avatar:   u.avatar,
			Email:    u.email,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
