package utils

// Map converts each element in sli with mapper.
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		ret[nth] = mapper(v)
	}
	return ret
}

// ToMap indexes sli by keys given with getkey.
//
// When keys collide, the latter element wins.
func ToMap[T any, K comparable](sli []T, getkey func(v T) K) map[K]T {
	m := map[K]T{}
	for _, v := range sli {
		m[getkey(v)] = v
	}
	return m
}

// Filter returns elements satisfying predicate, keeping order.
func Filter[T any](vs []T, predicate func(T) bool) []T {
	ret := []T{}
	for _, v := range vs {
		if predicate(v) {
			ret = append(ret, v)
		}
	}
	return ret
}
