package models

// User представляет пользователя в системе.
// Phone является первичным ключом записи в коллекции users и не меняется.
type User struct {
	FirstName      string   `json:"firstName"`      // имя
	LastName       string   `json:"lastName"`       // фамилия
	Phone          string   `json:"phone"`          // 10-значный номер телефона
	HashedPassword string   `json:"hashedPassword"` // keyed hash пароля
	Checks         []string `json:"checks"`         // id проверок, принадлежащих пользователю
	TOSAgreement   bool     `json:"tosAgreement"`   // согласие с условиями использования
}

// UserView is the public projection of a User: everything except the password hash.
type UserView struct {
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Phone        string   `json:"phone"`
	Checks       []string `json:"checks"`
	TOSAgreement bool     `json:"tosAgreement"`
}

// View returns the user without its password hash.
func (u *User) View() *UserView {
	checks := make([]string, len(u.Checks))
	copy(checks, u.Checks)
	return &UserView{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Checks:       checks,
		TOSAgreement: u.TOSAgreement,
	}
}

// HasCheck reports whether checkID is linked to the user.
func (u *User) HasCheck(checkID string) bool {
	for _, id := range u.Checks {
		if id == checkID {
			return true
		}
	}
	return false
}

// RemoveCheck unlinks checkID and reports whether it was present.
func (u *User) RemoveCheck(checkID string) bool {
	for i, id := range u.Checks {
		if id == checkID {
			u.Checks = append(u.Checks[:i], u.Checks[i+1:]...)
			return true
		}
	}
	return false
}
