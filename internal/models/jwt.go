package models

// JWTClaims represents the claims extracted from a JWT token
type JWTClaims struct {
	Sub   string `json:"sub"`   // Subject (user ID from provider)
	Email string `json:"email"` // User email
	Role  string `json:"role"`  // Provider role, e.g. "authenticated"
	Exp   int64  `json:"exp"`   // Expiration time
	Iat   int64  `json:"iat"`   // Issued at
	Iss   string `json:"iss"`   // Issuer
	Aud   string `json:"aud"`   // Audience
}

// User converts verified claims into the request user.
func (c *JWTClaims) User() *User {
	return &User{ID: c.Sub, Email: c.Email, Role: c.Role}
}
