// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// RegisterReq は/registerエンドポイントのリクエストボディを表します。
// 形式やパスワード長の検証はusecaseが行い、ここでは欠落のみを検出します。
type RegisterReq struct {
	FullName     string `json:"fullName" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Password     string `json:"password" binding:"required"`
	AgreeToTerms bool   `json:"agreeToTerms" binding:"required"`
}

// LoginReq は/loginと/admin/loginエンドポイントのリクエストボディを表します。
type LoginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CheckEmailReq は/check-emailエンドポイントのリクエストボディを表します。
type CheckEmailReq struct {
	Email string `json:"email" binding:"required"`
}

// UpdateProfileReq は PUT /profile のリクエストボディを表します。
// すべて任意で、空文字は「変更なし」を意味します。
type UpdateProfileReq struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
