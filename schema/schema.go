// Package schema parses the per-column format row that governs how a member's bits map to
// typed values.
package schema

// Schema is the parsed, column-ordered set of fields. A Schema is never modified after Parse
// returns it, so it may be shared between goroutines.
type Schema struct {
	fields    []Field
	totalBits uint
	groups    int
}

// Parse parses one descriptor per column. A malformed column is marked invalid without
// affecting its siblings.
func Parse(row []string) *Schema {
	s := &Schema{fields: make([]Field, len(row))}
	for i, src := range row {
		f := ParseField(src)
		s.fields[i] = f

		if f.Reserves() {
			s.totalBits += uint(f.BitWidth)
		}
		if f.Kind == KindPerm && int(f.PermGroup) >= s.groups {
			s.groups = int(f.PermGroup) + 1
		}
	}
	return s
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Field returns the descriptor of column i.
func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Fields returns a copy of the column descriptors.
func (s *Schema) Fields() []Field {
	fields := make([]Field, len(s.fields))
	copy(fields, s.fields)
	return fields
}

// Sources returns the descriptors the schema was parsed from.
func (s *Schema) Sources() []string {
	row := make([]string, len(s.fields))
	for i, f := range s.fields {
		row[i] = f.Source
	}
	return row
}

// TotalBits is the number of bits a member encodes.
func (s *Schema) TotalBits() uint {
	return s.totalBits
}

// ByteSize is the member buffer length: max(1, (TotalBits+1)/8).
//
// The division truncates, so a schema whose bit count is not a multiple of eight can come out a
// byte short; the missing tail reads back as zero bits.
func (s *Schema) ByteSize() int {
	n := int((s.totalBits + 1) >> 3)
	if n == 0 {
		return 1
	}
	return n
}

// Groups returns one more than the highest permutation group id, or 0 without permutations.
func (s *Schema) Groups() int {
	return s.groups
}

// Invalid returns the indices of columns that failed to parse.
func (s *Schema) Invalid() []int {
	var cols []int
	for i, f := range s.fields {
		if f.Kind == KindInvalid {
			cols = append(cols, i)
		}
	}
	return cols
}
