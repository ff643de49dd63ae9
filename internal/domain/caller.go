package domain

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Caller 当前请求的调用方，匿名时 UserID 为空
type Caller struct {
	UserID string
	Role   string
}

func Anonymous() Caller { return Caller{} }

func (c Caller) Authenticated() bool { return c.UserID != "" }
func (c Caller) IsAdmin() bool       { return c.Authenticated() && c.Role == RoleAdmin }
func (c Caller) Owns(ownerID string) bool {
	return c.Authenticated() && ownerID != "" && c.UserID == ownerID
}

// CanModify 所有者或管理员
func (c Caller) CanModify(ownerID string) bool { return c.IsAdmin() || c.Owns(ownerID) }

// Access 访问级别
type Access int

const (
	AccessPublic Access = iota
	AccessAuthenticated
	AccessOwner // 登录即可进入，记录级再按所有者判断
	AccessAdmin
)

// Allow 集合级判断：匿名 -> ErrUnauthorized，权限不足 -> ErrForbidden
func (c Caller) Allow(a Access) error {
	if a == AccessPublic {
		return nil
	}
	if !c.Authenticated() {
		return ErrUnauthorized
	}
	if a == AccessAdmin && !c.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
