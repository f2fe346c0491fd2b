package domain

// User is the credential record kept by the user store.
type User struct {
	Email       Email
	Password    HashedPassword
	Requires2FA bool
}

func NewUser(email Email, password HashedPassword, requires2FA bool) User {
	return User{Email: email, Password: password, Requires2FA: requires2FA}
}
