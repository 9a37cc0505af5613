package xenon

type ProcessingInstruction struct {
	node
	target string
	data   string
}

func newProcessingInstruction(target, data string) *ProcessingInstruction {
	return &ProcessingInstruction{
		target: target,
		data:   data,
	}
}

func (p *ProcessingInstruction) Type() NodeType {
	return ProcessingInstructionNodeType
}

// Name returns the processing instruction target.
func (p *ProcessingInstruction) Name() string {
	return p.target
}

func (p *ProcessingInstruction) LocalName() string {
	return p.target
}

func (p *ProcessingInstruction) Target() string {
	return p.target
}

func (p *ProcessingInstruction) Data() string {
	return p.data
}

func (p *ProcessingInstruction) Content() []byte {
	return []byte(p.data)
}

// AddChild is not a valid operation on a processing instruction.
func (p *ProcessingInstruction) AddChild(_ Node) error {
	return ErrInvalidOperation
}

// AddContent is not a valid operation on a processing instruction.
func (p *ProcessingInstruction) AddContent(_ []byte) error {
	return ErrInvalidOperation
}
