package models

// AuthTokens is the token bundle issued on signup and login
type AuthTokens struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// AuthResponse is the payload returned by signup and login
type AuthResponse struct {
	User      *User       `json:"user"`
	Tokens    *AuthTokens `json:"tokens"`
	IsNewUser bool        `json:"isNewUser,omitempty"`
}
