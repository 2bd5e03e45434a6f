package pagekit

import (
	"reflect"
	"regexp"
	"strings"

	"pagekit/mapper"
	"pagekit/tabling"
	"pagekit/vars"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// sortFieldPattern accepts a column name, optionally qualified by a table alias.
var sortFieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var validate = newValidator()

// Request describes which page to fetch.
// Page numbers are 1-based. The page size is capped at assignment time and validated before use.
type Request struct {
	PageNumber     int
	SortBy         string
	SortDescending bool

	pageSize    int
	maxPageSize int
}

// requestRules is the validated view of a Request.
type requestRules struct {
	PageNumber int    `paging:"page_number" validate:"gte=1"`
	PageSize   int    `paging:"page_size" validate:"gte=1"`
	SortBy     string `paging:"sort_by" validate:"omitempty,max=128,sortfield"`
}

// requestParams is the shape decoded by RequestFromParams.
type requestParams struct {
	PageNumber     *int    `paging:"page_number"`
	PageSize       *int    `paging:"page_size"`
	SortBy         *string `paging:"sort_by"`
	SortDescending *bool   `paging:"sort_descending"`
}

// NewRequest returns a request for the first page with the default size and cap.
func NewRequest() *Request {

	return NewRequestWithMax(vars.DefaultMaxPageSize)

}

// NewRequestWithMax returns a request for the first page whose page size is capped at maxPageSize.
// A non-positive maxPageSize falls back to the default cap.
func NewRequestWithMax(maxPageSize int) *Request {

	if maxPageSize <= 0 {
		maxPageSize = vars.DefaultMaxPageSize
	}

	r := &Request{
		PageNumber:  vars.DefaultPageNumber,
		maxPageSize: maxPageSize,
	}
	r.SetPageSize(vars.DefaultPageSize)

	return r

}

// RequestFromParams builds a request from a map or a struct using the `paging` tag keys
// page_number, page_size, sort_by and sort_descending. Missing keys keep their defaults.
func RequestFromParams(params interface{}) (*Request, error) {

	return requestFromParams(params, NewRequest())

}

func requestFromParams(params interface{}, req *Request) (*Request, error) {

	var p requestParams

	if _, ok := params.(map[string]interface{}); !ok && !isStruct(params) {
		return nil, errors.New("params must be a map or a struct")
	}

	if err := mapper.Decode(params, &p); err != nil {
		return nil, errors.Wrap(ErrInvalidArgument, err.Error())
	}

	if p.PageNumber != nil {
		req.PageNumber = *p.PageNumber
	}
	if p.PageSize != nil {
		req.SetPageSize(*p.PageSize)
	}
	if p.SortBy != nil {
		req.SortBy = *p.SortBy
	}
	if p.SortDescending != nil {
		req.SortDescending = *p.SortDescending
	}

	return req, nil

}

// SetPageSize stores min(size, max page size).
// There is no floor: non-positive sizes are kept and rejected by Validate.
func (r *Request) SetPageSize(size int) *Request {

	if size > r.MaxPageSize() {
		size = r.MaxPageSize()
	}

	r.pageSize = size
	return r

}

// PageSize returns the stored, already capped, page size.
func (r *Request) PageSize() int {
	return r.pageSize
}

// MaxPageSize returns the cap applied by SetPageSize.
func (r *Request) MaxPageSize() int {

	if r.maxPageSize <= 0 {
		return vars.DefaultMaxPageSize
	}

	return r.maxPageSize

}

// Offset returns the number of elements to skip, (PageNumber - 1) * PageSize.
func (r *Request) Offset() int {
	return (r.PageNumber - 1) * r.pageSize
}

// Sort renders the sort as `-column` for descending and `column` for ascending.
func (r *Request) Sort() string {

	if r.SortBy == "" {
		return ""
	}

	return (&tabling.Sorting{Field: r.SortBy, Descending: r.SortDescending}).String()

}

// SetSort parses a `-column` / `column` string into SortBy and SortDescending.
func (r *Request) SetSort(sort string) *Request {

	s := tabling.ParseSort(sort)
	if s == nil {
		r.SortBy, r.SortDescending = "", false
		return r
	}

	r.SortBy, r.SortDescending = s.Field, s.Descending
	return r

}

// Validate rejects non-positive page numbers and sizes and malformed sort fields.
func (r *Request) Validate() error {

	err := validate.Struct(requestRules{
		PageNumber: r.PageNumber,
		PageSize:   r.pageSize,
		SortBy:     r.SortBy,
	})
	if err == nil {
		return checkOffset(r.PageNumber, r.pageSize)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return invalidArgument(verrs[0].Field(), ruleMessage(verrs[0]))
	}

	return errors.Wrap(err, "failed to validate request")

}

// Tabling converts the request into the window consumed by sources.
// SortDescending without SortBy asks for the source's natural order reversed.
func (r *Request) Tabling() *tabling.Tabling {

	var sorting *tabling.Sorting
	if r.SortBy != "" || r.SortDescending {
		sorting = &tabling.Sorting{Field: r.SortBy, Descending: r.SortDescending}
	}

	return tabling.New(r.Offset(), r.pageSize, sorting)

}

// ruleMessage turns a failed validator tag into a short message.
func ruleMessage(fe validator.FieldError) string {

	switch fe.Tag() {
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "sortfield":
		return "must be a column name"
	default:
		return "is invalid"
	}

}

func newValidator() *validator.Validate {

	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their param names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get(vars.ParamTagKey), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("sortfield", func(fl validator.FieldLevel) bool {
		return sortFieldPattern.MatchString(fl.Field().String())
	})

	return v

}
