package mutation

// State is the run state of one Runner.
type State struct {
	IsRunning bool
	Error     *string
}

func (s State) clone() State {
	if s.Error != nil {
		message := *s.Error
		s.Error = &message
	}

	return s
}

// Notifier receives the lifecycle notifications of every run.
type Notifier interface {
	Starts()
	Success()
	Error(message string)
	Ends()
}

// NotifierFuncs adapts optional functions to Notifier.
type NotifierFuncs struct {
	OnStarts  func()
	OnSuccess func()
	OnError   func(message string)
	OnEnds    func()
}

func (n NotifierFuncs) Starts() {
	if n.OnStarts != nil {
		n.OnStarts()
	}
}

func (n NotifierFuncs) Success() {
	if n.OnSuccess != nil {
		n.OnSuccess()
	}
}

func (n NotifierFuncs) Error(message string) {
	if n.OnError != nil {
		n.OnError(message)
	}
}

func (n NotifierFuncs) Ends() {
	if n.OnEnds != nil {
		n.OnEnds()
	}
}

var _ Notifier = NotifierFuncs{}
