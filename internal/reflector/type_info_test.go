package reflector

import (
	"reflect"
	"sync"
	"testing"
)

type testStruct struct {
	Name string
}

type anotherStruct struct {
	Value int
}

func TestOf(t *testing.T) {
	ts := testStruct{Name: "test"}
	ti := Of(ts)

	if ti.Name != "github.com/SolaceHarmony/SolaceCore-sub002/internal/reflector.testStruct" {
		t.Errorf("unexpected Name: %s", ti.Name)
	}
	if ti.Type.Name() != "testStruct" {
		t.Errorf("unexpected Type.Name(): %s", ti.Type.Name())
	}
}

func TestOf_Pointer(t *testing.T) {
	ts := &testStruct{Name: "test"}
	ti := Of(ts)

	// Should unwrap pointer and return element type
	if ti.Name != "github.com/SolaceHarmony/SolaceCore-sub002/internal/reflector.testStruct" {
		t.Errorf("unexpected Name for pointer: %s", ti.Name)
	}
	if ti.Type.Kind() == reflect.Pointer {
		t.Error("Type should be unwrapped from pointer")
	}
}

func TestFor(t *testing.T) {
	ti := For[testStruct]()

	if ti.Name != "github.com/SolaceHarmony/SolaceCore-sub002/internal/reflector.testStruct" {
		t.Errorf("unexpected Name: %s", ti.Name)
	}
	if ti.Type.Name() != "testStruct" {
		t.Errorf("unexpected Type.Name(): %s", ti.Type.Name())
	}
}

func TestFor_Pointer(t *testing.T) {
	ti := For[*testStruct]()

	// Should unwrap pointer type parameter
	if ti.Name != "github.com/SolaceHarmony/SolaceCore-sub002/internal/reflector.testStruct" {
		t.Errorf("unexpected Name for pointer type: %s", ti.Name)
	}
}

func TestFor_Builtin(t *testing.T) {
	if got := For[int]().Name; got != "int" {
		t.Errorf("unexpected Name for int: %s", got)
	}
	if got := For[[]string]().Name; got != "[]string" {
		t.Errorf("unexpected Name for []string: %s", got)
	}
}

func TestForType_Nil(t *testing.T) {
	ti := ForType(nil)

	if ti.Name != "" {
		t.Errorf("expected empty Name for nil type, got: %s", ti.Name)
	}
	if ti.Type != nil {
		t.Error("expected nil Type for nil input")
	}
}

func TestConcurrentAccess(t *testing.T) {
	const goroutines = 100
	const iterations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				_ = Of(testStruct{})
				_ = For[anotherStruct]()
				_ = ForType(reflect.TypeFor[string]())
			}
		}()
	}

	wg.Wait()
}

func TestCacheHit(t *testing.T) {
	// Clear cache for test isolation
	muCache.Lock()
	cache = make(map[reflect.Type]TypeInfo)
	muCache.Unlock()

	ti1 := Of(testStruct{})
	ti2 := Of(testStruct{})

	if ti1.Name != ti2.Name {
		t.Error("cached result should match original")
	}
	if ti1.Type != ti2.Type {
		t.Error("cached Type should match original")
	}

	muCache.RLock()
	_, ok := cache[reflect.TypeFor[testStruct]()]
	muCache.RUnlock()

	if !ok {
		t.Error("expected cache to contain testStruct type")
	}
}
