// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace_backend/internal/feature/auth/domain/entity"
	jwtmw "marketplace_backend/internal/platform/jwt"
)

const (
	// dummyHash は未登録メールアドレスの場合に照合するハッシュです。
	// 未登録でもパスワード誤りと同じbcryptのコストがかかります。
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化し、IDを割り当てます。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrDuplicateEmailを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は正規化済みメールアドレスに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// Update は非nilのフィールドのみを更新し、更新後のユーザーを返します。
	Update(ctx context.Context, id string, upd entity.UserUpdate) (*entity.User, error)
}

// PasswordHasher はパスワードのハッシュ化と照合を定義します。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenService はトークンの発行と検証を定義します。
type TokenService interface {
	Issue(subjectID, role string, ttl time.Duration) (string, error)
	Verify(token string) (*jwtmw.Claims, error)
}

// RegisterInput はリクエストをデコードした後の登録フォームです。
type RegisterInput struct {
	FullName     string
	Email        string
	Phone        string
	Password     string
	AgreeToTerms bool
}

// UpdateProfileInput はプロフィールの変更内容です。空文字列は「変更なし」を意味します。
type UpdateProfileInput struct {
	FullName        string
	Email           string
	Phone           string
	CurrentPassword string
	NewPassword     string
}

// AuthResult は認証済みユーザーと発行したトークンの組です。
type AuthResult struct {
	User  *entity.User
	Token string
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenService
	now    func() time.Time
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, hasher PasswordHasher, tokens TokenService) *authUsecase {
	return &authUsecase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

// validatePassword はパスワードがセキュリティ要件を満たしているかチェックします。
func validatePassword(password string) error {
	if !entity.ValidPassword(password) {
		return validationError("password must be at least %d characters long", entity.MinPasswordLength)
	}
	return nil
}

// validateEmail は表示名なしの素のメールアドレスであるかチェックします。
func validateEmail(email string) error {
	if !entity.ValidEmail(email) {
		return validationError("Please enter a valid email")
	}
	return nil
}

// Register は新規ユーザーを登録し、30日間有効なトークンを発行します。
func (u *authUsecase) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := entity.NormalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)

	if fullName == "" || email == "" || phone == "" || in.Password == "" || !in.AgreeToTerms {
		return nil, validationError("Please fill all fields including terms agreement")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	// 重複チェック（最終的な一意性はストアのユニークインデックスが保証する）
	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	agreedAt := u.now()
	user := &entity.User{
		FullName:      fullName,
		Email:         email,
		Phone:         phone,
		PasswordHash:  hashed,
		Role:          entity.DefaultRole,
		IsVerified:    false,
		AgreedToTerms: true,
		TermsAgreedAt: &agreedAt,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := u.tokens.Issue(user.ID, user.Role.String(), jwtmw.UserTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// authenticate はメールアドレスとパスワードを照合します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationError("Please provide email and password")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	passwordHash := dummyHash
	if user != nil {
		passwordHash = user.PasswordHash
	}
	matched := u.hasher.Verify(password, passwordHash)

	if user == nil {
		return nil, ErrEmailNotRegistered
	}
	if !matched {
		return nil, ErrInvalidPassword
	}
	return user, nil
}

// Login はユーザーを認証し、成功時に30日間有効なトークンを返します。
// ロックアウト機構はなく、失敗回数に関わらず同じ結果を返します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := u.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := u.tokens.Issue(user.ID, user.Role.String(), jwtmw.UserTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// AdminLogin は管理者ロールのユーザーのみを認証し、24時間有効なトークンを返します。
// 管理者以外のアカウントは、パスワードが正しくてもErrInvalidCredentialsになります。
func (u *authUsecase) AdminLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := u.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user.Role != entity.RoleAdmin {
		return nil, ErrNotAdmin
	}

	token, err := u.tokens.Issue(user.ID, user.Role.String(), jwtmw.AdminTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// CheckEmail はメールアドレスが登録済みかどうかを返します。副作用はありません。
func (u *authUsecase) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return false, validationError("Email is required")
	}

	_, err := u.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUserNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check email: %w", err)
	}
}

// resolve はトークンを自ら検証し、その主体のユーザーを取得します。
// ルートでAuthRequiredが実行済みでも、プロフィールの参照・更新では必ず呼び出します。
func (u *authUsecase) resolve(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no token provided", ErrUnauthorized)
	}
	claims, err := u.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return u.users.FindByID(ctx, claims.Subject)
}

// Profile はトークンの主体のユーザー情報を返します。
func (u *authUsecase) Profile(ctx context.Context, token string) (*entity.User, error) {
	return u.resolve(ctx, token)
}

// UpdateProfile はトークンの主体のプロフィールを更新します。
// 新しいパスワードを設定する場合は現在のパスワードの照合が必要です。
func (u *authUsecase) UpdateProfile(ctx context.Context, token string, in UpdateProfileInput) (*entity.User, error) {
	user, err := u.resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	var upd entity.UserUpdate

	if name := strings.TrimSpace(in.FullName); name != "" && name != user.FullName {
		upd.FullName = &name
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" && phone != user.Phone {
		upd.Phone = &phone
	}

	if email := entity.NormalizeEmail(in.Email); email != "" && email != user.Email {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		existing, err := u.users.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, ErrDuplicateEmail
		case err != nil && !errors.Is(err, ErrUserNotFound):
			return nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		upd.Email = &email
	}

	if in.NewPassword != "" {
		if in.CurrentPassword == "" {
			return nil, validationError("Current password is required to set a new password")
		}
		if err := validatePassword(in.NewPassword); err != nil {
			return nil, err
		}
		if !u.hasher.Verify(in.CurrentPassword, user.PasswordHash) {
			return nil, ErrIncorrectCurrentPassword
		}
		hashed, err := u.hasher.Hash(in.NewPassword)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hashed
	}

	if upd.IsEmpty() {
		return user, nil
	}

	updated, err := u.users.Update(ctx, user.ID, upd)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}
