package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type registerRequest struct {
	Username  string `json:"username"   validate:"required,max=50"`
	Password  string `json:"password"   validate:"required,min=1,maxbytes=72"`
	Email     string `json:"email"      validate:"required,email,max=255"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// replaceAccountRequest is the body of PUT /users/:id. Every field is sent.
type replaceAccountRequest struct {
	Username  string `json:"username"   validate:"required,max=50"`
	Password  string `json:"password"   validate:"required,min=1,maxbytes=72"`
	Email     string `json:"email"      validate:"required,email,max=255"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
}

// patchAccountRequest is the body of PATCH /users/:id. Absent fields are nil.
type patchAccountRequest struct {
	Username  *string `json:"username"   validate:"omitnil,min=1,max=50"`
	Password  *string `json:"password"   validate:"omitnil,min=1,maxbytes=72"`
	Email     *string `json:"email"      validate:"omitnil,email,max=255"`
	FirstName *string `json:"first_name" validate:"omitnil,max=100"`
	LastName  *string `json:"last_name"  validate:"omitnil,max=100"`
}

type accountLinks struct {
	Self string `json:"self"`
}

// accountResponse is the public view of a profile. Credential data never
// appears in it.
type accountResponse struct {
	ID        string       `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Role      string       `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Links     accountLinks `json:"_links"`
}

type listAccountsResponse struct {
	Items []accountResponse `json:"items"`
	Total int               `json:"total"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
