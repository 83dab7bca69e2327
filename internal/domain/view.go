package domain

// View is a console section.
type View string

const (
	ViewDashboard     View = "dashboard"
	ViewLogEntry      View = "log-entry"
	ViewLogManagement View = "log-management"
	ViewMembers       View = "members"
	ViewShips         View = "ships"
	ViewTelegram      View = "telegram"
)

// Views lists every view in menu order.
var Views = []View{ViewDashboard, ViewLogEntry, ViewLogManagement, ViewMembers, ViewShips, ViewTelegram}

var viewAccess = map[View][]Role{
	ViewDashboard:     {RoleAdmin},
	ViewLogEntry:      {RoleAdmin, RoleCaptain, RoleEngineer},
	ViewLogManagement: {RoleAdmin, RoleCaptain},
	ViewMembers:       {RoleAdmin},
	ViewShips:         {RoleAdmin},
	ViewTelegram:      {RoleAdmin},
}

// Label returns the Korean menu title
func (v View) Label() string {
	switch v {
	case ViewDashboard:
		return "대시보드"
	case ViewLogEntry:
		return "운항일지 작성"
	case ViewLogManagement:
		return "운항일지 관리"
	case ViewMembers:
		return "회원 관리"
	case ViewShips:
		return "선박 정보 관리"
	case ViewTelegram:
		return "Telegram 설정"
	default:
		return string(v)
	}
}

// CanView reports whether role r may open view v.
func (r Role) CanView(v View) bool {
	for _, allowed := range viewAccess[v] {
		if allowed == r {
			return true
		}
	}
	return false
}

// ViewsFor returns the menu for a role, in menu order.
func ViewsFor(r Role) []View {
	var views []View
	for _, v := range Views {
		if r.CanView(v) {
			views = append(views, v)
		}
	}
	return views
}

// LandingView is the view a user sees right after switching in.
// Returns false for roles that have no views at all.
func LandingView(r Role) (View, bool) {
	views := ViewsFor(r)
	if len(views) == 0 {
		return "", false
	}
	return views[0], true
}

// SeesAllLogs reports whether the role reads every voyage log rather than only its own.
func (r Role) SeesAllLogs() bool {
	return r == RoleAdmin
}
