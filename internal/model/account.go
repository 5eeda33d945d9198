package model

import "time"

// Account represents a storefront user account
type Account struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Mobile       string    `json:"mobile"`
	PasswordHash string    `json:"-"` // Never leaves the server
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AccountView is the public projection of an Account returned by the API
type AccountView struct {
	ID       string `json:"id"`
	FullName string `json:"fullName,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile,omitempty"`
}

// View returns the public projection of the account
func (a *Account) View() AccountView {
	return AccountView{
		ID:       a.ID,
		FullName: a.FullName,
		Username: a.Username,
		Email:    a.Email,
		Mobile:   a.Mobile,
	}
}

// RegisterRequest carries the fields required to open an account
type RegisterRequest struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

// LoginRequest carries username/password credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfileUpdate lists the only fields a caller may change on their own profile.
// Nil pointers are left untouched.
type ProfileUpdate struct {
	FullName *string `json:"fullName,omitempty"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Mobile   *string `json:"mobile,omitempty"`
	Password *string `json:"password,omitempty"`
}

// IsEmpty reports whether no field was supplied
func (u ProfileUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Username == nil && u.Email == nil && u.Mobile == nil && u.Password == nil
}

// UpdateProfileRequest is the body of PUT /api/updateUserProfile
type UpdateProfileRequest struct {
	CurrentPassword string        `json:"currentPassword"`
	Updates         ProfileUpdate `json:"updates"`
}

// AccountUpdate is the body of PATCH /api/userUpdate/:id. Passwords cannot be
// changed here; that requires re-authentication through ProfileUpdate.
type AccountUpdate struct {
	FullName *string `json:"fullName,omitempty"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Mobile   *string `json:"mobile,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Profile converts the update into a ProfileUpdate without a password
func (u AccountUpdate) Profile() ProfileUpdate {
	return ProfileUpdate{
		FullName: u.FullName,
		Username: u.Username,
		Email:    u.Email,
		Mobile:   u.Mobile,
	}
}
