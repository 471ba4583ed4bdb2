package middleware

import "testing"

func TestHasPermission(t *testing.T) {
	user := &AppUser{
		UserID:      "usr_1",
		OrgID:       "org_1",
		Role:        "user",
		Permissions: []string{"graph.node.create", "graph.edge.create"},
	}
	admin := &AppUser{
		UserID: "usr_2",
		OrgID:  "org_1",
		Role:   "admin",
	}

	tests := []struct {
		name       string
		user       *AppUser
		permission string
		want       bool
	}{
		{"granted", user, "graph.node.create", true},
		{"not granted", user, "graph.merge", false},
		{"admin holds everything", admin, "graph.merge", true},
		{"nil user", nil, "graph.node.create", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.user, tt.permission); got != tt.want {
				t.Errorf("HasPermission(%q) = %v, want %v", tt.permission, got, tt.want)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	if !IsAdmin(&AppUser{Role: "admin"}) {
		t.Error("admin role should be admin")
	}
	if IsAdmin(&AppUser{Role: "user"}) {
		t.Error("user role should not be admin")
	}
	if IsAdmin(nil) {
		t.Error("nil user should not be admin")
	}
}
