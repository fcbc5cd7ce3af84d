package route

import "kasbi-client/internal/entity"

type NavItem struct {
	Label string
	Path  string
}

const ManageAdminsLabel = "Kelola Admin"

// AdminNavItems lists the sidebar entries for role. It is recomputed on
// every call; nothing is cached.
func AdminNavItems(role entity.UserRole) []NavItem {
	items := []NavItem{
		{Label: "Dashboard", Path: AdminDashboard.Path},
		{Label: "Chatbot KASBI", Path: Chatbot.Path},
		{Label: "Manajemen Dokumen", Path: AdminDocuments.Path},
	}
	if role == entity.UserRoleSuperAdmin {
		items = append(items, NavItem{Label: ManageAdminsLabel, Path: AdminUsersManage.Path})
	}
	return append(items, NavItem{Label: "Pengaturan", Path: AdminSettings.Path})
}

// Landing is where a freshly logged in user is sent.
func Landing(role entity.UserRole) string {
	switch role {
	case entity.UserRoleAdmin, entity.UserRoleSuperAdmin:
		return AdminDashboard.Path
	}
	return Chatbot.Path
}
