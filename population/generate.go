// Package population implements the genetic operators over bit-packed members: random
// initialization, single-splice crossover with mutation, and fitness-proportional selection
// with elitism.
package population

import "github.com/orthopteroid/ganesha-xl/schema"

// Generate returns count members of s.ByteSize() uniformly random bytes.
func Generate(src Source, s *schema.Schema, count int) [][]byte {
	if count < 0 {
		count = 0
	}

	size := s.ByteSize()
	members := make([][]byte, count)
	for i := range members {
		members[i] = make([]byte, size)
		src.Read(members[i])
	}
	return members
}
