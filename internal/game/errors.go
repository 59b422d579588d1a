package game

import "errors"

// Kind はエラーの分類。トランスポート層はこれをステータスコードに対応付ける。
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidState
	KindInvalidInput
	KindUnauthorized
)

// Error is returned by every rejected operation on a Session or Registry.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is は Kind が一致すれば同じエラーとみなす。errors.Is(err, ErrNotFound) のように使う。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// 分類ごとの代表エラー
var (
	ErrNotFound       = newError(KindNotFound, "not found")
	ErrInvalidState   = newError(KindInvalidState, "invalid state")
	ErrInvalidInput   = newError(KindInvalidInput, "invalid input")
	ErrUnauthorized   = newError(KindUnauthorized, "invalid host secret")
	ErrRoomNotFound   = newError(KindNotFound, "room not found")
	ErrUserNotFound   = newError(KindNotFound, "user not found in room")
	ErrNotAPlayer     = newError(KindNotFound, "player not found in game")
	ErrNotActive      = newError(KindInvalidState, "game is not active")
	ErrCannotSend     = newError(KindInvalidState, "not enough active coins to send a batch")
	ErrCoinOutOfRange = newError(KindInvalidInput, "coin index out of range")
	ErrCoinActive     = newError(KindInvalidInput, "coin is already flipped")
)

// KindOf は err の分類を返す。*Error を含まない場合は 0。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
