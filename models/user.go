package models

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"` // Stripped by Public before leaving the core
	IsAdmin   bool   `json:"isAdmin"`
}

// Public returns a copy of the user without the stored credential.
func (u User) Public() User {
	u.Password = ""
	return u
}

// FullName joins first and last name for display in notices.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
