package journal

// ProjectPatch holds the project fields to change. Nil fields are left as is.
type ProjectPatch struct {
	Name     *string
	Color    *string
	Archived *bool
}

// IdeaPatch holds the idea fields to change. Nil fields are left as is.
type IdeaPatch struct {
	Text       *string
	ProjectIDs *[]int64
	Hidden     *bool
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder attaches an operation recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithIDGenerator overrides the idea id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithImportUpgrade runs the legacy upgrade on imported documents too.
func WithImportUpgrade(enabled bool) Option {
	return func(s *Service) {
		s.upgradeImports = enabled
	}
}
