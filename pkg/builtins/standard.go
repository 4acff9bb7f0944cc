package builtins

import (
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/nooga/simdjs/pkg/config"
	"github.com/nooga/simdjs/pkg/errors"
	"github.com/nooga/simdjs/pkg/vm"
)

// GetStandardInitializers returns all built-in initializers sorted by priority
func GetStandardInitializers() []BuiltinInitializer {
	var initializers []BuiltinInitializer

	// Core builtins
	initializers = append(initializers, &ObjectInitializer{})
	initializers = append(initializers, &FunctionInitializer{})
	initializers = append(initializers, &SymbolInitializer{})

	// Vector family
	initializers = append(initializers, &SIMDInitializer{})

	// Sort by priority (lower numbers first)
	sort.SliceStable(initializers, func(i, j int) bool {
		return initializers[i].Priority() < initializers[j].Priority()
	})

	return initializers
}

var realmIDs atomic.Int64

// NewRealm creates a realm and runs the standard initializers against it.
// A nil cfg installs every declared SIMD kind. On error no realm is returned.
func NewRealm(cfg *config.Config) (*vm.Realm, error) {
	realm := vm.NewRealm(int(realmIDs.Add(1)))
	if err := InitializeRealm(realm, cfg, GetStandardInitializers()); err != nil {
		return nil, err
	}
	return realm, nil
}

// InitializeRealm runs initializers in priority order. Bootstrap is not
// retried: the first failure aborts and is returned as a *errors.BootstrapError.
func InitializeRealm(realm *vm.Realm, cfg *config.Config, initializers []BuiltinInitializer) error {
	if cfg == nil {
		cfg = config.Default()
	}
	if realm.IsInitialized() {
		return &errors.BootstrapError{Initializer: "realm", Msg: "realm already initialized"}
	}
	ctx := &RuntimeContext{
		Realm:             realm,
		Config:            cfg,
		DefineGlobal:      realm.DefineGlobal,
		ObjectPrototype:   realm.ObjectPrototype,
		FunctionPrototype: realm.FunctionPrototype,
	}
	log := Logger().With(zap.Int("realm", realm.ID()))
	for _, bi := range initializers {
		log.Debug("initializing builtin", zap.String("name", bi.Name()), zap.Int("priority", bi.Priority()))
		if err := bi.InitRuntime(ctx); err != nil {
			log.Error("builtin initialization failed", zap.String("name", bi.Name()), zap.Error(err))
			if be, ok := err.(*errors.BootstrapError); ok {
				return be
			}
			return (&errors.BootstrapError{Initializer: bi.Name(), Msg: "initialization failed"}).CausedBy(err)
		}
	}
	realm.MarkInitialized()
	return nil
}
