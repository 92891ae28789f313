package sqlerr

import (
	"errors"
	"strings"
)

// Classification is the result of a successful delegate match.
type Classification struct {
	Kind       Kind
	Constraint ConstraintKind
}

// Delegate classifies a vendor error; ok is false when it does not recognise it.
type Delegate func(v *VendorError) (c Classification, ok bool)

// NameExtractor returns the violated constraint name found in a vendor error,
// or "" when there is none.
type NameExtractor func(v *VendorError) string

// Vendor bundles the conversion tables of one database family.
type Vendor struct {
	Delegate  Delegate
	Extractor NameExtractor
}

// Converter routes driver errors through a dialect delegate, then the SQLSTATE
// class delegate. Unmatched vendor errors become Unrecognized errors.
type Converter struct {
	dialect   string
	delegates []Delegate
	extractor NameExtractor
}

// NewConverter builds a converter for the named dialect.
func NewConverter(dialect string, v Vendor) *Converter {
	c := &Converter{dialect: dialect, extractor: v.Extractor}
	if v.Delegate != nil {
		c.delegates = append(c.delegates, v.Delegate)
	}
	c.delegates = append(c.delegates, SQLStateDelegate)
	return c
}

// Convert maps err to an *Error. Nil and non-database errors are returned
// unchanged; errors already converted are not converted twice.
func (c *Converter) Convert(err error, sql string) error {
	if err == nil {
		return nil
	}
	var done *Error
	if errors.As(err, &done) {
		return err
	}
	v, ok := FromDriver(err)
	if !ok {
		return err
	}
	out := &Error{
		Kind:      Unrecognized,
		Dialect:   c.dialect,
		SQL:       sql,
		SQLState:  v.SQLState,
		ErrorCode: v.Code,
		Err:       err,
	}
	for _, d := range c.delegates {
		if cl, ok := d(v); ok {
			out.Kind, out.Constraint = cl.Kind, cl.Constraint
			break
		}
	}
	if out.Kind == ConstraintViolation {
		out.ConstraintName = c.ExtractConstraintName(v)
	}
	return out
}

// ExtractConstraintName returns the constraint name of v: the one reported
// by the driver when present, else what the dialect's extractor finds.
func (c *Converter) ExtractConstraintName(v *VendorError) string {
	if v.Constraint != "" {
		return v.Constraint
	}
	if c.extractor == nil {
		return ""
	}
	return c.extractor(v)
}

// ExtractUsingTemplate returns the text between the first occurrence of begin
// and the next occurrence of end, or "" if either is missing.
func ExtractUsingTemplate(begin, end, message string) string {
	i := strings.Index(message, begin)
	if i < 0 {
		return ""
	}
	rest := message[i+len(begin):]
	j := strings.Index(rest, end)
	if j < 0 {
		return ""
	}
	return rest[:j]
}

// SQLStateDelegate classifies errors by SQLSTATE class. It is the last
// delegate of every converter.
func SQLStateDelegate(v *VendorError) (Classification, bool) {
	state := v.SQLState
	if len(state) < 2 {
		return Classification{}, false
	}
	switch state {
	case "40001", "61000":
		return Classification{Kind: LockAcquisition}, true
	case "HYT00", "HYT01", "57014":
		return Classification{Kind: QueryTimeout}, true
	}
	switch state[:2] {
	case "23", "27", "44":
		return Classification{Kind: ConstraintViolation, Constraint: constraintForState(state)}, true
	case "07", "37", "42", "65", "S0":
		return Classification{Kind: SQLGrammar}, true
	case "21", "22":
		return Classification{Kind: DataError}, true
	case "08":
		return Classification{Kind: Connection}, true
	}
	return Classification{}, false
}

func constraintForState(state string) ConstraintKind {
	switch state {
	case "23505":
		return Unique
	case "23502":
		return NotNull
	case "23503":
		return ForeignKey
	case "23513", "23514":
		return Check
	}
	return OtherConstraint
}

func constraint(c ConstraintKind) (Classification, bool) {
	return Classification{Kind: ConstraintViolation, Constraint: c}, true
}

func kind(k Kind) (Classification, bool) {
	return Classification{Kind: k}, true
}
