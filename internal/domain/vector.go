package domain

// Vector is a point in a vector space shared by a query and its candidate documents.
type Vector []float64

// VectorFromFloat32 widens a provider embedding for scoring.
func VectorFromFloat32(v []float32) Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// IsZero reports whether every component is zero (or the vector is empty).
func (v Vector) IsZero() bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
