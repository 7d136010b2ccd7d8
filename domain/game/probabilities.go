package game

// Probabilities are the six exclusive outcomes of a cubeless game from the
// view of the player on roll. They sum to 1.
type Probabilities struct {
	WinNormal  float32 `json:"win_normal" validate:"gte=0,lte=1"`
	WinGammon  float32 `json:"win_gammon" validate:"gte=0,lte=1"`
	WinBg      float32 `json:"win_bg" validate:"gte=0,lte=1"`
	LoseNormal float32 `json:"lose_normal" validate:"gte=0,lte=1"`
	LoseGammon float32 `json:"lose_gammon" validate:"gte=0,lte=1"`
	LoseBg     float32 `json:"lose_bg" validate:"gte=0,lte=1"`
}

// Certain returns the probabilities of a known result.
func Certain(r Result) Probabilities {
	var p Probabilities
	switch r {
	case WinNormal:
		p.WinNormal = 1
	case WinGammon:
		p.WinGammon = 1
	case WinBackgammon:
		p.WinBg = 1
	case LoseNormal:
		p.LoseNormal = 1
	case LoseGammon:
		p.LoseGammon = 1
	case LoseBackgammon:
		p.LoseBg = 1
	}
	return p
}

// Normalized scales the probabilities so they sum to 1.
func Normalized(winNormal, winGammon, winBg, loseNormal, loseGammon, loseBg float32) Probabilities {
	sum := winNormal + winGammon + winBg + loseNormal + loseGammon + loseBg
	if sum <= 0 {
		return Probabilities{WinNormal: 0.5, LoseNormal: 0.5}
	}
	return Probabilities{
		WinNormal:  winNormal / sum,
		WinGammon:  winGammon / sum,
		WinBg:      winBg / sum,
		LoseNormal: loseNormal / sum,
		LoseGammon: loseGammon / sum,
		LoseBg:     loseBg / sum,
	}
}

// Sum is the total of all six outcomes.
func (p Probabilities) Sum() float32 {
	return p.WinNormal + p.WinGammon + p.WinBg + p.LoseNormal + p.LoseGammon + p.LoseBg
}

// Win is the chance of winning in any way.
func (p Probabilities) Win() float32 {
	return p.WinNormal + p.WinGammon + p.WinBg
}

// Equity is the cubeless equity: a normal game counts 1, a gammon 2 and a
// backgammon 3.
func (p Probabilities) Equity() float32 {
	return p.WinNormal - p.LoseNormal + 2*(p.WinGammon-p.LoseGammon) + 3*(p.WinBg-p.LoseBg)
}

// SwitchSides returns the probabilities from the opponent's view.
func (p Probabilities) SwitchSides() Probabilities {
	return Probabilities{
		WinNormal:  p.LoseNormal,
		WinGammon:  p.LoseGammon,
		WinBg:      p.LoseBg,
		LoseNormal: p.WinNormal,
		LoseGammon: p.WinGammon,
		LoseBg:     p.WinBg,
	}
}

// Evaluation is Probabilities with the derived values a client wants.
type Evaluation struct {
	Probabilities
	Win    float32 `json:"win" doc:"Sum of the three win outcomes."`
	Equity float32 `json:"equity" doc:"Cubeless equity between -3 and 3."`
}

// Evaluate derives an Evaluation.
func Evaluate(p Probabilities) Evaluation {
	return Evaluation{Probabilities: p, Win: p.Win(), Equity: p.Equity()}
}

// EngineInfo describes the evaluation engine.
type EngineInfo struct {
	Name      string `json:"name" doc:"Engine name."`
	Evaluator string `json:"evaluator" doc:"Evaluator in use." example:"random"`
	Version   string `json:"version" doc:"Engine version."`
}
