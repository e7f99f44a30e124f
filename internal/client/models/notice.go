package models

// NoticeLevel grades a transient user-facing notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a short-lived, non-blocking message, the terminal counterpart of
// a toast.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// NoticeFunc receives notices. A nil NoticeFunc drops them.
type NoticeFunc func(Notice)

func (f NoticeFunc) Emit(level NoticeLevel, msg string) {
	if f != nil {
		f(Notice{Level: level, Message: msg})
	}
}
