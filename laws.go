package poisson

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"
)

// Laws checked on Asymptotic by CheckAsymptoticLaws.
const (
	LawAssociative   = "Associative"   // (a·b)·c = a·(b·c), (a+b)+c = a+(b+c)
	LawCommutative   = "Commutative"   // a·b = b·a, a+b = b+a
	LawIdentity      = "Identity"      // a·1 = a, a+0 = a
	LawAbsorbing     = "Absorbing"     // a·0 = 0
	LawMonotone      = "Monotone"      // a+b is never negligible before a
	LawTotalPreorder = "TotalPreorder" // Compare is antisymmetric and transitive
)

// AsymptoticLaws lists every law CheckAsymptoticLaws knows.
var AsymptoticLaws = []string{
	LawAssociative, LawCommutative, LawIdentity, LawAbsorbing, LawMonotone, LawTotalPreorder,
}

// LawVerified records which algebraic laws a type satisfied on sample
// values. A type may embed it to carry the proof along.
type LawVerified struct {
	TypeName   string            // e.g. "poisson.Asymptotic"
	Laws       []string          // laws that held on every sample
	TestedAt   time.Time         // when the check ran
	Samples    int               // number of sample values
	Properties map[string]string // additional metadata
}

// LawRegistry maps type names to their verified laws. It is safe for
// concurrent use.
type LawRegistry struct {
	mu       sync.RWMutex
	verified map[string]LawVerified
}

// NewLawRegistry creates an empty registry.
func NewLawRegistry() *LawRegistry {
	return &LawRegistry{verified: make(map[string]LawVerified)}
}

// Register records v, replacing any previous record of the same type.
func (r *LawRegistry) Register(v LawVerified) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verified[v.TypeName] = v
}

// IsVerified returns the record of typeName.
func (r *LawRegistry) IsVerified(typeName string) (LawVerified, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.verified[typeName]
	return v, ok
}

// CheckType checks that the dynamic type of v is registered, or embeds a
// LawVerified, with every required law.
func (r *LawRegistry) CheckType(v any, requiredLaws []string) error {
	t := reflect.TypeOf(v)
	if t == nil {
		return errors.New("nil value cannot be verified")
	}
	typeName := t.String()

	verified, ok := r.IsVerified(typeName)
	if !ok {
		if embed := extractEmbedded(v); embed != nil {
			verified, ok = *embed, true
		}
	}
	if !ok {
		return fmt.Errorf("type %s is not in the law registry", typeName)
	}
	for _, required := range requiredLaws {
		if !slices.Contains(verified.Laws, required) {
			return fmt.Errorf("type %s is missing law %s (has %v)", typeName, required, verified.Laws)
		}
	}
	return nil
}

// extractEmbedded returns the LawVerified embedded in v, if any.
func extractEmbedded(v any) *LawVerified {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Pointer {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}
	lawType := reflect.TypeOf(LawVerified{})
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		if typ.Field(i).Type == lawType {
			lv := val.Field(i).Interface().(LawVerified)
			return &lv
		}
	}
	return nil
}

var defaultRegistry = NewLawRegistry()

// DefaultLawRegistry returns the process-wide registry that
// CheckAsymptoticLaws fills.
func DefaultLawRegistry() *LawRegistry { return defaultRegistry }

// LawViolation describes a law that failed on specific samples.
type LawViolation struct {
	Law     string
	Samples []Asymptotic
	Detail  string
}

func (e *LawViolation) Error() string {
	return fmt.Sprintf("law %s violated on %v: %s", e.Law, e.Samples, e.Detail)
}

// CheckAsymptoticLaws verifies the algebra of Asymptotic on every pair and
// triple of the defined samples. The laws that held are registered in the
// default registry under "poisson.Asymptotic"; the returned error joins a
// *LawViolation per failed law.
func CheckAsymptoticLaws(samples []Asymptotic) (LawVerified, error) {
	var defined []Asymptotic
	for _, s := range samples {
		if !s.IsNaN() {
			defined = append(defined, s)
		}
	}
	checks := []struct {
		law   string
		check func([]Asymptotic) *LawViolation
	}{
		{LawAssociative, checkAssociative},
		{LawCommutative, checkCommutative},
		{LawIdentity, checkIdentity},
		{LawAbsorbing, checkAbsorbing},
		{LawMonotone, checkMonotone},
		{LawTotalPreorder, checkTotalPreorder},
	}
	proof := LawVerified{
		TypeName: reflect.TypeOf(Asymptotic{}).String(),
		TestedAt: time.Now(),
		Samples:  len(defined),
	}
	var errs []error
	for _, c := range checks {
		if v := c.check(defined); v != nil {
			errs = append(errs, v)
			continue
		}
		proof.Laws = append(proof.Laws, c.law)
	}
	defaultRegistry.Register(proof)
	return proof, errors.Join(errs...)
}

func checkAssociative(xs []Asymptotic) *LawViolation {
	for _, a := range xs {
		for _, b := range xs {
			for _, c := range xs {
				if !a.Mul(b).Mul(c).IsClose(a.Mul(b.Mul(c))) {
					return &LawViolation{LawAssociative, []Asymptotic{a, b, c}, "product"}
				}
				if !a.Add(b).Add(c).IsClose(a.Add(b.Add(c))) {
					return &LawViolation{LawAssociative, []Asymptotic{a, b, c}, "sum"}
				}
			}
		}
	}
	return nil
}

func checkCommutative(xs []Asymptotic) *LawViolation {
	for _, a := range xs {
		for _, b := range xs {
			if !a.Mul(b).IsClose(b.Mul(a)) {
				return &LawViolation{LawCommutative, []Asymptotic{a, b}, "product"}
			}
			if !a.Add(b).IsClose(b.Add(a)) {
				return &LawViolation{LawCommutative, []Asymptotic{a, b}, "sum"}
			}
		}
	}
	return nil
}

func checkIdentity(xs []Asymptotic) *LawViolation {
	for _, a := range xs {
		if !a.Mul(AsymptoticOne()).IsClose(a) {
			return &LawViolation{LawIdentity, []Asymptotic{a}, "product by one"}
		}
		if !a.Add(AsymptoticZero()).IsClose(a) {
			return &LawViolation{LawIdentity, []Asymptotic{a}, "sum with zero"}
		}
	}
	return nil
}

func checkAbsorbing(xs []Asymptotic) *LawViolation {
	for _, a := range xs {
		if !a.Mul(AsymptoticZero()).IsZero() {
			return &LawViolation{LawAbsorbing, []Asymptotic{a}, "product by zero"}
		}
	}
	return nil
}

func checkMonotone(xs []Asymptotic) *LawViolation {
	for _, a := range xs {
		for _, b := range xs {
			if cmp, _ := a.Add(b).Compare(a); cmp < 0 {
				return &LawViolation{LawMonotone, []Asymptotic{a, b}, "a+b < a"}
			}
		}
	}
	return nil
}

func checkTotalPreorder(xs []Asymptotic) *LawViolation {
	for _, a := range xs {
		for _, b := range xs {
			ab, _ := a.Compare(b)
			ba, _ := b.Compare(a)
			if ab != -ba {
				return &LawViolation{LawTotalPreorder, []Asymptotic{a, b}, "not antisymmetric"}
			}
			for _, c := range xs {
				bc, _ := b.Compare(c)
				ac, _ := a.Compare(c)
				if ab >= 0 && bc >= 0 && ac < 0 {
					return &LawViolation{LawTotalPreorder, []Asymptotic{a, b, c}, "not transitive"}
				}
			}
		}
	}
	return nil
}
