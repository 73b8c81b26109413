package authsdk

import (
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
)

// ErrorResponse is the JSON body of every failure response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"    example:"ada@example.com"`
	Password string `json:"password" example:"correct horse battery staple"`
}

// CodeRequest carries a six digit TOTP code.
type CodeRequest struct {
	Code string `json:"code" example:"123456"`
}

// User is the public view of an identity embedded in token responses.
type User struct {
	ID         string `json:"id"          example:"01HZY3M8Q4X5R2K7T9N6B1C0DE"`
	Email      string `json:"email"       example:"ada@example.com"`
	Role       string `json:"role"        example:"user"`
	MFAEnabled bool   `json:"mfa_enabled"`
}

// LoginResponse is returned by login, MFA verification and the social
// callback. Exactly one shape is populated: a full token with User, or
// MFARequired with TempToken.
type LoginResponse struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"   example:"Bearer"`
	ExpiresIn   int    `json:"expires_in"             example:"43200"`
	User        *User  `json:"user,omitempty"`

	MFARequired bool   `json:"mfa_required,omitempty"`
	TempToken   string `json:"temp_token,omitempty"`
}

// EnrollmentResponse is returned by POST /v1/mfa/totp/enroll. The secret is
// shown once.
type EnrollmentResponse struct {
	Secret          string `json:"secret"           example:"JBSWY3DPEHPK3PXP"`
	ProvisioningURI string `json:"provisioning_uri" example:"otpauth://totp/Auth:ada@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Auth"`
	QRCode          string `json:"qr_code"          example:"data:image/png;base64,iVBORw0KGgo..."`
}

// SuccessResponse acknowledges an operation with no other result.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// MeResponse describes the caller of GET /v1/me.
type MeResponse struct {
	User
	AMR []string `json:"amr,omitempty"`
}

// RoleResponse is one entry of GET /v1/roles.
type RoleResponse struct {
	ID   string `json:"id"`
	Name string `json:"name" example:"admin"`
}

// RolesResponse is the body of GET /v1/roles.
type RolesResponse struct {
	Roles []RoleResponse `json:"roles"`
}

// HealthResponse is returned by /livez and /readyz; only readyz fills Checks.
type HealthResponse struct {
	Status  string        `json:"status"            example:"ok"`
	Uptime  string        `json:"uptime,omitempty"  example:"1h23m45s"`
	Version string        `json:"version,omitempty" example:"dev"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each readiness dependency.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	Replay   string `json:"replay,omitempty"`
}

// JWKSResponse is the public key set served at /.well-known/jwks.json.
type JWKSResponse jwtx.JWKS
