package models

type UserForRegistration struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	UserName    string   `json:"userName" validate:"required"`
	Password    string   `json:"password" validate:"required"`
	Email       string   `json:"email" validate:"omitempty,email"`
	PhoneNumber string   `json:"phoneNumber"`
	Roles       []string `json:"roles"`
}

type UserForAuthentication struct {
	UserName string `json:"userName" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenDto struct {
	AccessToken string `json:"accessToken"`
}
