// Package store описывает контракт хранилища записей и его простые реализации.
//
// Хранилище не предоставляет транзакций между операциями: поиск и запись
// выполняются независимо, поэтому конкурентные upsert одного ключа
// могут создать дубликат.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/maine/ai_news_bot/internal/content"
)

// ErrNotFound возвращается FindByKey, если записи с ключом нет.
var ErrNotFound = errors.New("record not found")

// RecordStore - хранилище записей, разбитое на коллекции.
type RecordStore interface {
	// FindByKey возвращает запись по ключу и должна видеть последнюю подтверждённую запись.
	FindByKey(ctx context.Context, c content.Collection, key string) (content.Record, error)
	// Create вставляет новую запись и возвращает присвоенный идентификатор.
	Create(ctx context.Context, c content.Collection, key string, doc content.Document) (string, error)
	// Update изменяет поля записи по идентификатору. CreatedAt не меняется.
	Update(ctx context.Context, c content.Collection, id string, doc content.Document) error
}

// Lister - необязательная возможность: последние записи коллекции.
type Lister interface {
	Latest(ctx context.Context, c content.Collection, limit int) ([]content.Record, error)
}

// Kind классифицирует ошибки хранилища.
type Kind int

const (
	// KindUnavailable - сеть, таймаут, блокировка: повтор имеет смысл.
	KindUnavailable Kind = iota + 1
	// KindRejected - некорректные данные или нарушение ограничения: повтор не поможет.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error - ошибка хранилища с указанием вида.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unavailable помечает ошибку как временную.
func Unavailable(op string, err error) error {
	return &Error{Kind: KindUnavailable, Op: op, Err: err}
}

// Rejected помечает ошибку как постоянную для данного ввода.
func Rejected(op string, err error) error {
	return &Error{Kind: KindRejected, Op: op, Err: err}
}

// IsRejected сообщает, отвергло ли хранилище запрос окончательно.
func IsRejected(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindRejected
}

// IsTransient сообщает, что ошибка временная и операцию можно повторить.
func IsTransient(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindUnavailable
}

// Validate проверяет запрос на запись до обращения к бэкенду.
func Validate(op string, c content.Collection, key string, doc content.Document) error {
	if key == "" {
		return Rejected(op, fmt.Errorf("%w: empty key", content.ErrInvalidDocument))
	}
	if err := doc.Validate(c); err != nil {
		return Rejected(op, err)
	}
	return nil
}
