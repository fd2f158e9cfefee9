package token

import "errors"

var (
	ErrNilState           = errors.New("token: state not configured")
	ErrTokenNotFound      = errors.New("token: owner query for nonexistent token")
	ErrTokenExists        = errors.New("token: token already minted")
	ErrZeroAddress        = errors.New("token: zero address")
	ErrNotOwner           = errors.New("token: transfer from wrong owner")
	ErrNotOwnerOrApproved = errors.New("token: caller is not owner nor approved")
)
