package models

// PostForm is the text part of the create/edit post form; the image arrives
// as a multipart file and is checked separately.
type PostForm struct {
	Text       string `form:"text" validate:"required"`
	Group      string `form:"group" validate:"omitempty,numeric"`
	ClearImage string `form:"image-clear"`
}

type CommentForm struct {
	Text string `form:"text" validate:"required,max=5000"`
}

type SignupForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email,max=254"`
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Password  string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password"`
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// CreateGroupRequest is the admin JSON body for creating a group.
type CreateGroupRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,max=100,slug"`
	Description string `json:"description"`
}

// FirebaseLoginRequest carries a Firebase ID token to exchange for a session.
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}
