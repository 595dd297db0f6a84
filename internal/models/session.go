package models

// WizardSession is the navigation state owned by the wizard controller.
type WizardSession struct {
	CurrentStep int  `json:"currentStep"`
	TotalSteps  int  `json:"totalSteps"`
	Submitting  bool `json:"submitting"`
	Submitted   bool `json:"submitted"`
}

// IsFinalStep reports whether the session sits on its last step.
func (s WizardSession) IsFinalStep() bool {
	return s.CurrentStep == s.TotalSteps
}
