// Package cognito implements the identity provider port on an Amazon Cognito
// user pool through the AWS SDK v2.
package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"github.com/cutdesk/cutdesk/internal/adapters/identitycache"
	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/ports"
)

// API is the subset of the Cognito client used by Provider.
type API interface {
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, in *cip.RespondToAuthChallengeInput, optFns ...func(*cip.Options)) (*cip.RespondToAuthChallengeOutput, error)
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ForgotPassword(ctx context.Context, in *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, in *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
}

// Config holds the user pool client settings.
type Config struct {
	Region     string
	UserPoolID string
	ClientID   string
	// ClientSecret is set only for confidential app clients; it enables SECRET_HASH.
	ClientSecret string
	// Endpoint overrides the service endpoint (e.g. a local emulator).
	Endpoint    string
	GroupsClaim string
	Store       ports.StateStore
	Now         func() time.Time
}

// Provider implements ports.IdentityProvider on Cognito.
type Provider struct {
	api      API
	clientID string
	secret   string
	cache    identitycache.Cache
	now      func() time.Time
}

var _ ports.IdentityProvider = (*Provider)(nil)

// NewClient builds an unsigned Cognito client. The user-pool operations used
// here authenticate with the app client id and user tokens, not IAM.
func NewClient(ctx context.Context, cfg Config) (*cip.Client, error) {
	if cfg.Region == "" {
		return nil, errors.New("cognito: region is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return cip.NewFromConfig(awsCfg, func(o *cip.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewProvider wraps api. Use NewClient for the production client.
func NewProvider(api API, cfg Config) (*Provider, error) {
	if api == nil {
		return nil, errors.New("cognito: api client is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("cognito: client ID is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("cognito: state store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{
		api:      api,
		clientID: cfg.ClientID,
		secret:   cfg.ClientSecret,
		cache:    identitycache.Cache{Store: cfg.Store, GroupsClaim: cfg.GroupsClaim},
		now:      now,
	}, nil
}

func (p *Provider) CurrentUser(ctx context.Context) (*domainauth.User, bool) {
	return p.cache.CurrentUser(ctx)
}

// Session returns cached tokens while valid and otherwise runs
// REFRESH_TOKEN_AUTH with the cached refresh token.
func (p *Provider) Session(ctx context.Context) (domainauth.Tokens, error) {
	id, err := p.cache.Load(ctx)
	if err != nil {
		return domainauth.Tokens{}, err
	}
	if id.Username == "" {
		return domainauth.Tokens{}, domainauth.ErrNoUserFound
	}
	if tok := id.Tokens(); tok.Valid(p.now()) {
		return tok, nil
	}
	if id.RefreshToken == "" {
		return domainauth.Tokens{}, domainauth.NewProviderError(domainauth.ExcNotAuthorized, "no refresh token", nil)
	}

	params := map[string]string{"REFRESH_TOKEN": id.RefreshToken}
	if h := p.secretHash(id.Username); h != "" {
		params["SECRET_HASH"] = h
	}
	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeRefreshTokenAuth,
		ClientId:       aws.String(p.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return domainauth.Tokens{}, mapError("refresh session", err)
	}
	if out.AuthenticationResult == nil {
		return domainauth.Tokens{}, domainauth.ErrSessionInvalid
	}
	tok := p.tokens(out.AuthenticationResult)
	if tok.RefreshToken == "" {
		tok.RefreshToken = id.RefreshToken
	}
	if err = p.cache.Renew(ctx, id, tok); err != nil {
		return domainauth.Tokens{}, err
	}
	return tok, nil
}

func (p *Provider) Authenticate(ctx context.Context, email, password string) (domainauth.SignInResult, error) {
	params := map[string]string{"USERNAME": email, "PASSWORD": password}
	if h := p.secretHash(email); h != "" {
		params["SECRET_HASH"] = h
	}
	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(p.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return domainauth.SignInResult{}, mapError("initiate auth", err)
	}

	if out.ChallengeName == types.ChallengeNameTypeNewPasswordRequired {
		username := email
		if u := out.ChallengeParameters["USER_ID_FOR_SRP"]; u != "" {
			username = u
		}
		return domainauth.SignInResult{Challenge: &domainauth.NewPasswordChallenge{
			Username:           username,
			Session:            aws.ToString(out.Session),
			RequiredAttributes: requiredAttributes(out.ChallengeParameters["requiredAttributes"]),
		}}, nil
	}
	if out.ChallengeName != "" {
		return domainauth.SignInResult{}, fmt.Errorf("initiate auth: unsupported challenge %s", out.ChallengeName)
	}
	if out.AuthenticationResult == nil {
		return domainauth.SignInResult{}, domainauth.ErrSessionInvalid
	}

	tok := p.tokens(out.AuthenticationResult)
	username := email
	if claims, cerr := domainauth.DecodeClaims(tok.IDToken, ""); cerr == nil && claims.Username != "" {
		username = claims.Username
	}
	if err = p.cache.Remember(ctx, username, tok); err != nil {
		return domainauth.SignInResult{}, err
	}
	return domainauth.SignInResult{Tokens: tok}, nil
}

// CompleteNewPassword answers NEW_PASSWORD_REQUIRED. The returned tokens are
// discarded; callers sign in again with the new password.
func (p *Provider) CompleteNewPassword(ctx context.Context, ch domainauth.NewPasswordChallenge, newPassword string) error {
	resp := map[string]string{"USERNAME": ch.Username, "NEW_PASSWORD": newPassword}
	if h := p.secretHash(ch.Username); h != "" {
		resp["SECRET_HASH"] = h
	}
	_, err := p.api.RespondToAuthChallenge(ctx, &cip.RespondToAuthChallengeInput{
		ChallengeName:      types.ChallengeNameTypeNewPasswordRequired,
		ClientId:           aws.String(p.clientID),
		ChallengeResponses: resp,
		Session:            aws.String(ch.Session),
	})
	if err != nil {
		return mapError("respond to new password challenge", err)
	}
	return nil
}

func (p *Provider) SignUp(ctx context.Context, req domainauth.SignUpRequest) (domainauth.SignUpResult, error) {
	attrs := []types.AttributeType{{Name: aws.String("email"), Value: aws.String(req.Email)}}
	if req.FullName != "" {
		attrs = append(attrs, types.AttributeType{Name: aws.String("name"), Value: aws.String(req.FullName)})
	}
	if req.Phone != "" {
		attrs = append(attrs, types.AttributeType{Name: aws.String("phone_number"), Value: aws.String(req.Phone)})
	}
	out, err := p.api.SignUp(ctx, &cip.SignUpInput{
		ClientId:       aws.String(p.clientID),
		Username:       aws.String(req.Email),
		Password:       aws.String(req.Password),
		UserAttributes: attrs,
		SecretHash:     p.secretHashPtr(req.Email),
	})
	if err != nil {
		return domainauth.SignUpResult{}, mapError("sign up", err)
	}
	res := domainauth.SignUpResult{
		UserSub:   aws.ToString(out.UserSub),
		Confirmed: out.UserConfirmed,
	}
	if d := out.CodeDeliveryDetails; d != nil {
		res.CodeDeliveryMedium = string(d.DeliveryMedium)
		res.CodeDeliveryAddress = aws.ToString(d.Destination)
	}
	return res, nil
}

func (p *Provider) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := p.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		SecretHash:       p.secretHashPtr(email),
	})
	if err != nil {
		return mapError("confirm sign up", err)
	}
	return nil
}

func (p *Provider) ForgotPassword(ctx context.Context, email string) error {
	_, err := p.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId:   aws.String(p.clientID),
		Username:   aws.String(email),
		SecretHash: p.secretHashPtr(email),
	})
	if err != nil {
		return mapError("forgot password", err)
	}
	return nil
}

func (p *Provider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	_, err := p.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
		SecretHash:       p.secretHashPtr(email),
	})
	if err != nil {
		return mapError("confirm forgot password", err)
	}
	return nil
}

// SignOut revokes the user's tokens server-side when possible and always
// forgets the cached user. A failed revocation does not keep the user signed in.
func (p *Provider) SignOut(ctx context.Context) error {
	id, err := p.cache.Load(ctx)
	if err != nil {
		return err
	}
	var revokeErr error
	if id.AccessToken != "" {
		if _, err = p.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(id.AccessToken)}); err != nil {
			revokeErr = mapError("global sign out", err)
		}
	}
	if err = p.cache.Forget(ctx); err != nil {
		return err
	}
	if revokeErr != nil && !errors.Is(revokeErr, domainauth.ErrNotAuthorized) {
		return revokeErr
	}
	return nil
}

func (p *Provider) tokens(r *types.AuthenticationResultType) domainauth.Tokens {
	tok := domainauth.Tokens{
		IDToken:      aws.ToString(r.IdToken),
		AccessToken:  aws.ToString(r.AccessToken),
		RefreshToken: aws.ToString(r.RefreshToken),
	}
	if r.ExpiresIn > 0 {
		tok.ExpiresAt = p.now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return tok
}

// secretHash computes SECRET_HASH = Base64(HMAC_SHA256(secret, username+clientID)).
func (p *Provider) secretHash(username string) string {
	if p.secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write([]byte(username + p.clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (p *Provider) secretHashPtr(username string) *string {
	if h := p.secretHash(username); h != "" {
		return aws.String(h)
	}
	return nil
}

// requiredAttributes parses the JSON list Cognito sends with the challenge,
// stripping the "userAttributes." prefix.
func requiredAttributes(raw string) []string {
	if raw == "" {
		return nil
	}
	var attrs []string
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil
	}
	const prefix = "userAttributes."
	for i, a := range attrs {
		if len(a) > len(prefix) && a[:len(prefix)] == prefix {
			attrs[i] = a[len(prefix):]
		}
	}
	return attrs
}

// mapError turns SDK exceptions into named provider errors.
func mapError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", op, domainauth.NewProviderError(apiErr.ErrorCode(), apiErr.ErrorMessage(), err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
