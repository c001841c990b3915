// Package token はトークンの発行・検証とセッション管理を提供する。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer はトークンに埋め込む固定の発行者識別子。
const Issuer = "otegecmis.github.io"

// ErrInvalidToken はトークン検証失敗を示す。
// 改ざん・期限切れ・発行者不一致のいずれでも同一のエラーを返し、
// 失敗理由を呼び出し元に漏らさない。
var ErrInvalidToken = errors.New("invalid token")

// Kind はトークンの種別を表す。種別ごとに独立した秘密鍵と有効期間を持つ。
type Kind string

const (
	// KindAccess は保護されたリクエストに添付する短命トークンを示す。
	KindAccess Kind = "access"
	// KindRefresh はトークンペアの再発行にのみ使用する長命トークンを示す。
	KindRefresh Kind = "refresh"
)

// KindConfig はトークン種別ごとの署名設定を保持する。
type KindConfig struct {
	Secret     []byte
	Expiration time.Duration
}

// Codec は署名付き・期限付きトークンの発行と検証を行う。
// 純粋な暗号計算のみでI/Oを持たない。
type Codec struct {
	access  KindConfig
	refresh KindConfig
}

// NewCodec はCodecを生成する。
// アクセストークンとリフレッシュトークンの秘密鍵は独立していること。
func NewCodec(access, refresh KindConfig) *Codec {
	return &Codec{access: access, refresh: refresh}
}

// Expiration は指定種別の有効期間を返す。
func (c *Codec) Expiration(kind Kind) time.Duration {
	return c.config(kind).Expiration
}

// Issue は指定ユーザーIDをaudienceとする署名付きトークンを発行する。
// 有効期限は「現在時刻 + 種別ごとの設定値」。
func (c *Codec) Issue(kind Kind, userID string) (string, error) {
	cfg := c.config(kind)
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{userID},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiration)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return signed, nil
}

// Verify はトークンの署名・発行者・有効期限を検証し、audienceのユーザーIDを返す。
// いかなる検証失敗もErrInvalidTokenに集約する。
func (c *Codec) Verify(kind Kind, tokenString string) (string, error) {
	cfg := c.config(kind)

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	if len(claims.Audience) != 1 || claims.Audience[0] == "" {
		return "", ErrInvalidToken
	}

	return claims.Audience[0], nil
}

func (c *Codec) config(kind Kind) KindConfig {
	if kind == KindRefresh {
		return c.refresh
	}
	return c.access
}
