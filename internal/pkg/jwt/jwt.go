package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims is the identity carried by an access token.
type Claims struct {
	UserID     string
	EmployeeID string // empty for users without an employee record
	CompanyID  string
	Role       user.Role
}

type Service interface {
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	m := claims.toMap()
	m["exp"] = expiresAt

	_, tokenString, err := j.tokenAuth.Encode(m)
	return tokenString, expiresAt, err
}

func (c Claims) toMap() map[string]interface{} {
	m := map[string]interface{}{
		"user_id":    c.UserID,
		"company_id": c.CompanyID,
		"role":       string(c.Role),
		"type":       "access",
	}
	if c.EmployeeID != "" {
		m["employee_id"] = c.EmployeeID
	} else {
		m["employee_id"] = nil
	}
	return m
}

// ContextWithClaims attaches an unsigned token carrying claims, for callers
// that act without an HTTP request such as scheduled jobs.
func ContextWithClaims(ctx context.Context, claims Claims) (context.Context, error) {
	token := jwt.New()
	for k, v := range claims.toMap() {
		if v == nil {
			continue
		}
		if err := token.Set(k, v); err != nil {
			return nil, fmt.Errorf("failed to set claim %s: %w", k, err)
		}
	}
	return jwtauth.NewContext(ctx, token, nil), nil
}

// ClaimsFromContext reads the claims placed by jwtauth.Verifier or
// ContextWithClaims. company_id and user_id are mandatory.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return Claims{}, fmt.Errorf("company_id claim is missing or invalid: %w", auth.ErrInvalidToken)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return Claims{}, fmt.Errorf("user_id claim is missing or invalid: %w", auth.ErrInvalidToken)
	}

	employeeID, _ := claims["employee_id"].(string)
	role, _ := claims["role"].(string)

	return Claims{
		UserID:     userID,
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Role:       user.Role(role),
	}, nil
}
