package document

import "errors"

type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindUnsupportedType Kind = "UNSUPPORTED_TYPE"
	KindLoad            Kind = "LOAD_ERROR"
	KindValidation      Kind = "VALIDATION_ERROR"
	KindStore           Kind = "STORE_ERROR"
	KindModel           Kind = "MODEL_ERROR"
	KindCallback        Kind = "CALLBACK_ERROR"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrLoad            = errors.New("load failed")
	ErrValidation      = errors.New("validation failed")
	ErrStore           = errors.New("store failed")
	ErrModel           = errors.New("model failed")
	ErrCallback        = errors.New("callback failed")
)

var sentinels = map[Kind]error{
	KindNotFound:        ErrNotFound,
	KindUnsupportedType: ErrUnsupportedType,
	KindLoad:            ErrLoad,
	KindValidation:      ErrValidation,
	KindStore:           ErrStore,
	KindModel:           ErrModel,
	KindCallback:        ErrCallback,
}

// Error is the typed failure shared by the pipelines and their collaborators.
// Error() yields Msg when set, otherwise the wrapped cause's message, so the
// text reported to callers is the underlying reason.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinel, so errors.Is(err, ErrStore) works through wrapping.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func NotFoundError(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg}
}

func UnsupportedTypeError(op, msg string) error {
	return &Error{Kind: KindUnsupportedType, Op: op, Msg: msg}
}

func ValidationError(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

func LoadError(op string, err error) error {
	return wrap(KindLoad, op, err)
}

func StoreError(op string, err error) error {
	return wrap(KindStore, op, err)
}

func ModelError(op string, err error) error {
	return wrap(KindModel, op, err)
}

func CallbackError(op string, err error) error {
	return wrap(KindCallback, op, err)
}

// wrap keeps an existing typed error as is so a lower layer's classification survives.
func wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
