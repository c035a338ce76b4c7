// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"marketplace_backend/internal/feature/auth/domain"
	"marketplace_backend/internal/feature/auth/domain/entity"
	"marketplace_backend/internal/feature/auth/usecase"
)

// pgUniqueViolation はPostgreSQLの一意制約違反を示すSQLSTATEです。
const pgUniqueViolation = "23505"

var errNilUser = errors.New("user must not be nil")

// userGorm はUserRepositoryインターフェースのGORM実装です。
// 本番環境ではPostgreSQL、テストではインメモリSQLiteで動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタです。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// isDuplicateKey はエラーが一意制約違反かどうかを判定します。
// gorm.Config.TranslateErrorが有効な場合はgorm.ErrDuplicatedKeyに変換されますが、
// 変換されないドライバーのためにpgconnのエラーコードも確認します。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Create はユーザーをデータベースに追加し、UUIDを割り当てます。
// 同じメールアドレスのユーザーが既に存在する場合、domain.ErrDuplicateEmailを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errNilUser
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicateKey(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、domain.ErrUserNotFoundを返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、domain.ErrUserNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Update は非nilのフィールドのみを更新し、更新後のユーザーを返します。
// 更新と再読み込みは同一トランザクションで実行されます。
func (r *userGorm) Update(ctx context.Context, id string, upd entity.UserUpdate) (*entity.User, error) {
	cols := map[string]any{}
	if upd.FullName != nil {
		cols["full_name"] = *upd.FullName
	}
	if upd.Email != nil {
		cols["email"] = *upd.Email
	}
	if upd.Phone != nil {
		cols["phone"] = *upd.Phone
	}
	if upd.PasswordHash != nil {
		cols["password_hash"] = *upd.PasswordHash
	}
	if upd.Role != nil {
		cols["role"] = *upd.Role
	}

	var out entity.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(cols) > 0 {
			res := tx.Model(&entity.User{}).Where("id = ?", id).Updates(cols)
			if res.Error != nil {
				if isDuplicateKey(res.Error) {
					return domain.ErrDuplicateEmail
				}
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrUserNotFound
			}
		}
		if err := tx.Where("id = ?", id).First(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete はユーザーを物理削除します。
// ユーザーが存在しない場合、domain.ErrUserNotFoundを返します。
func (r *userGorm) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List は全ユーザーを作成日時の新しい順に返します。
func (r *userGorm) List(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
