package logging

// NopLogger discards everything. Handy as a default and in tests.
type NopLogger struct{}

func NewNopLogger() Logger { return NopLogger{} }

func (NopLogger) Init() {}

func (NopLogger) Debug(Category, SubCategory, string, map[ExtraKey]any) {}
func (NopLogger) Debugf(string, ...any)                                 {}
func (NopLogger) Info(Category, SubCategory, string, map[ExtraKey]any)  {}
func (NopLogger) Infof(string, ...any)                                  {}
func (NopLogger) Warn(Category, SubCategory, string, map[ExtraKey]any)  {}
func (NopLogger) Warnf(string, ...any)                                  {}
func (NopLogger) Error(Category, SubCategory, string, map[ExtraKey]any) {}
func (NopLogger) Errorf(string, ...any)                                 {}
func (NopLogger) Fatal(Category, SubCategory, string, map[ExtraKey]any) {}
func (NopLogger) Fatalf(string, ...any)                                 {}
