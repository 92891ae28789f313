package dialects

import "strings"

// AddColumn returns "alter table t add column <def>" in the dialect's form.
func (d *Dialect) AddColumn(table, columnDef string) string {
	c := &d.caps
	sep := " "
	if strings.HasSuffix(c.AddColumn, "(") {
		sep = ""
	}
	return "alter table " + table + " " + c.AddColumn + sep + columnDef + c.AddColumnSuffix
}

// DropConstraint returns the DDL dropping a named constraint.
func (d *Dialect) DropConstraint(table, name string) string {
	return "alter table " + table + " drop constraint " + name
}

// DropForeignKey returns the DDL dropping a foreign key.
func (d *Dialect) DropForeignKey(table, name string) string {
	return "alter table " + table + " " + d.caps.DropForeignKey + " " + name
}

// DropTable returns the DDL dropping table, guarded by "if exists" where
// supported and cascading where the dialect can.
func (d *Dialect) DropTable(table string) string {
	var b strings.Builder
	b.WriteString("drop table ")
	if d.caps.IfExists {
		b.WriteString("if exists ")
	}
	b.WriteString(table)
	b.WriteString(d.caps.CascadeConstraints)
	return b.String()
}

// TemporaryTableName returns the name a temporary table base is created under.
func (d *Dialect) TemporaryTableName(base string) string {
	return d.caps.TempTablePrefix + base
}

// CreateTemporaryTable returns the DDL creating a temporary table with the
// given column definitions.
func (d *Dialect) CreateTemporaryTable(base string, columnDefs []string) string {
	c := &d.caps
	return c.CreateTempTable + " " + d.TemporaryTableName(base) +
		" (" + strings.Join(columnDefs, ", ") + ")" + c.TempTableSuffix
}

// DropTemporaryTable returns the DDL dropping a temporary table.
func (d *Dialect) DropTemporaryTable(base string) string {
	return d.caps.DropTempTable + " " + d.TemporaryTableName(base)
}

// ColumnCheck returns " check (<condition>)" or "" when column checks are
// not supported.
func (d *Dialect) ColumnCheck(condition string) string {
	if !d.caps.ColumnCheck || condition == "" {
		return ""
	}
	return " check (" + condition + ")"
}

// NoColumnsInsert returns the insert of a row with only default values.
func (d *Dialect) NoColumnsInsert(table string) string {
	return "insert into " + table + " " + d.caps.NoColumnsInsert
}
