package dialects

import (
	"fmt"
	"strings"
)

// SequenceSupport describes how a dialect creates and reads sequences.
// Templates use %s for the sequence name.
type SequenceSupport struct {
	Supported bool `json:"supported"`
	// NextValue is the expression yielding the next value, e.g. "nextval('%s')".
	NextValue string `json:"next_value,omitempty"`
	// SelectNextValue is the statement selecting the next value.
	SelectNextValue string `json:"select_next_value,omitempty"`
	// Create uses %s, then %d for the start and %d for the increment.
	// Templates without %d ignore both.
	Create string `json:"create,omitempty"`
	Drop   string `json:"drop,omitempty"`
	// Query lists the sequences of the current schema.
	Query string `json:"query,omitempty"`
}

func (d *Dialect) sequenceCheck() error {
	if !d.sequences.Supported {
		return d.Unsupported("sequences")
	}
	return nil
}

// NextSequenceValue returns the expression yielding the next value of name.
func (d *Dialect) NextSequenceValue(name string) (string, error) {
	if err := d.sequenceCheck(); err != nil {
		return "", err
	}
	return fmt.Sprintf(d.sequences.NextValue, name), nil
}

// SelectSequenceNextValue returns a statement selecting the next value of name.
func (d *Dialect) SelectSequenceNextValue(name string) (string, error) {
	if err := d.sequenceCheck(); err != nil {
		return "", err
	}
	return fmt.Sprintf(d.sequences.SelectNextValue, name), nil
}

// CreateSequence returns the DDL creating name.
func (d *Dialect) CreateSequence(name string, start, increment int64) (string, error) {
	if err := d.sequenceCheck(); err != nil {
		return "", err
	}
	if increment == 0 {
		return "", fmt.Errorf("sqldialect: sequence %s: increment must not be zero", name)
	}
	if !strings.Contains(d.sequences.Create, "%d") {
		return fmt.Sprintf(d.sequences.Create, name), nil
	}
	return fmt.Sprintf(d.sequences.Create, name, start, increment), nil
}

// DropSequence returns the DDL dropping name.
func (d *Dialect) DropSequence(name string) (string, error) {
	if err := d.sequenceCheck(); err != nil {
		return "", err
	}
	return fmt.Sprintf(d.sequences.Drop, name), nil
}

// QuerySequences returns the statement listing sequences.
func (d *Dialect) QuerySequences() (string, error) {
	if err := d.sequenceCheck(); err != nil {
		return "", err
	}
	if d.sequences.Query == "" {
		return "", d.Unsupported("sequence information query")
	}
	return d.sequences.Query, nil
}

// IdentityColumnSupport describes identity (auto increment) columns.
type IdentityColumnSupport struct {
	Supported bool `json:"supported"`
	// Column is the identity fragment of a column definition.
	Column string `json:"column,omitempty"`
	// KeepsDataType reports whether the column type precedes Column.
	KeepsDataType bool `json:"keeps_data_type"`
	// Select reads the last generated value; {table} and {column} are
	// replaced. Empty when only driver-generated keys are available.
	Select string `json:"select,omitempty"`
	// InsertValue is written for the identity column in an insert, if any.
	InsertValue string `json:"insert_value,omitempty"`
}

// IdentityColumn returns the column definition of an identity column of
// the given DDL type.
func (d *Dialect) IdentityColumn(columnType string) (string, error) {
	id := d.identity
	if !id.Supported {
		return "", d.Unsupported("identity columns")
	}
	if id.KeepsDataType {
		return columnType + " " + id.Column, nil
	}
	return id.Column, nil
}

// IdentitySelect returns the statement reading the identity value generated
// last for table.column.
func (d *Dialect) IdentitySelect(table, column string) (string, error) {
	if !d.identity.Supported || d.identity.Select == "" {
		return "", d.Unsupported("identity select")
	}
	return strings.NewReplacer("{table}", table, "{column}", column).Replace(d.identity.Select), nil
}

// Sequences returns the sequence support of d.
func (d *Dialect) Sequences() SequenceSupport { return d.sequences }

// Identity returns the identity column support of d.
func (d *Dialect) Identity() IdentityColumnSupport { return d.identity }
