package engine

import "fmt"

// Apply runs one intent through the turn state machine. On success the
// state advances and Version increments; on failure the game is left
// untouched and the typed error describes the rejection.
//
// Apply is not safe for concurrent use. The room actor is the single
// caller and serializes all intents for a room through its mailbox.
func (g *Game) Apply(in Intent) error {
	switch g.Phase {
	case PhaseLobby:
		return fmt.Errorf("%w: game has not been dealt", ErrInvalidPhase)
	case PhaseFinished:
		return fmt.Errorf("%w: game is finished", ErrInvalidPhase)
	}
	if g.player(in.Actor) == nil {
		return fmt.Errorf("%w: unknown player %q", ErrNotYourTurn, in.Actor)
	}

	var err error
	switch in.Type {
	case IntentChooseAction:
		err = g.chooseAction(in.Actor, in.Action, in.Target)
	case IntentChallenge:
		err = g.challengeClaim(in.Actor)
	case IntentSkipChallenge:
		err = g.skipChallenge(in.Actor)
	case IntentSelectTarget:
		err = g.selectTarget(in.Actor, in.Target)
	case IntentRevealCard:
		err = g.revealCard(in.Actor, in.CardIndex)
	default:
		err = fmt.Errorf("%w: intent type %d", ErrUnknownAction, in.Type)
	}
	if err != nil {
		return err
	}

	g.checkWin()
	g.Version++
	return nil
}

// coinDelta returns the immediate coin gain of the unclaimed economy
// actions.
func coinDelta(k ActionKind) int {
	switch k {
	case Income:
		return 1
	case ForeignAid:
		return 2
	}
	return 0
}

func (g *Game) chooseAction(actor, actionName, target string) error {
	if g.Phase != PhaseAction {
		return fmt.Errorf("%w: cannot choose an action during %s", ErrInvalidPhase, g.Phase)
	}
	if g.CurrentPlayer().Name != actor {
		return fmt.Errorf("%w: it is %s's turn", ErrNotYourTurn, g.CurrentPlayer().Name)
	}
	spec, err := Describe(actionName)
	if err != nil {
		return err
	}
	p := g.CurrentPlayer()
	if p.Coins < spec.Cost {
		return fmt.Errorf("%w: %s costs %d, %s has %d", ErrInsufficientFunds, spec.Name, spec.Cost, actor, p.Coins)
	}

	// Coup resolves without a challenge window, so its target must come
	// with the submission. Steal and Assassinate may defer the target to
	// the TargetSelection phase after the challenge window closes.
	if spec.Kind == Coup && target == "" {
		return fmt.Errorf("%w: %s requires a target", ErrInvalidTarget, spec.Name)
	}
	if target != "" {
		if !spec.NeedsTarget {
			return fmt.Errorf("%w: %s takes no target", ErrInvalidTarget, spec.Name)
		}
		if err := g.validateTarget(actor, target); err != nil {
			return err
		}
	}

	switch {
	case spec.Kind == Coup:
		p.Coins -= spec.Cost
		g.Pending = &PendingAction{Kind: Coup, Actor: actor, Target: target, Claim: NoCard}
		g.Revealing = target
		g.Phase = PhaseRevealCard
		g.appendLog(fmt.Sprintf("%s launches a Coup against %s", actor, target), "action", actor)

	case !spec.Challengeable: // Income, Foreign Aid: immediate economy
		delta := coinDelta(spec.Kind)
		p.Coins += delta
		g.appendLog(fmt.Sprintf("%s takes %s (+%d coins)", actor, spec.Name, delta), "action", actor)
		g.advanceTurn()

	default: // challengeable claims: Tax, Assassinate, Exchange, Steal
		if spec.Kind == Assassinate {
			// Cost is committed before the challenge outcome and is not
			// refunded if the claim is successfully challenged.
			p.Coins -= spec.Cost
		}
		g.Pending = &PendingAction{Kind: spec.Kind, Actor: actor, Target: target, Claim: spec.Claim}
		g.skipped = make(map[string]bool)
		g.Phase = PhaseChallenge
		g.appendLog(fmt.Sprintf("%s claims to have %s for %s", actor, spec.Claim, spec.Name), "action", actor)
	}
	return nil
}

func (g *Game) challengeClaim(actor string) error {
	// Two clients racing to challenge arrive here back to back: the first
	// moves the phase, the second must learn it lost the race.
	if g.Phase == PhaseChallengeResolution && g.Challenge != nil {
		return fmt.Errorf("%w: %s challenged first", ErrAlreadyChallenged, g.Challenge.Challenger)
	}
	if g.Phase != PhaseChallenge {
		return fmt.Errorf("%w: no claim open to challenge during %s", ErrInvalidPhase, g.Phase)
	}
	if err := g.mayRespond(actor); err != nil {
		return err
	}
	if g.Challenge != nil {
		return fmt.Errorf("%w: %s challenged first", ErrAlreadyChallenged, g.Challenge.Challenger)
	}
	g.Challenge = &ChallengeState{
		Challenger: actor,
		Challenged: g.Pending.Actor,
		Claim:      g.Pending.Claim,
	}
	g.Phase = PhaseChallengeResolution
	g.appendLog(fmt.Sprintf("%s challenges %s who claims to have %s", actor, g.Pending.Actor, g.Pending.Claim), "challenge", actor)
	return nil
}

func (g *Game) skipChallenge(actor string) error {
	if g.Phase != PhaseChallenge {
		return fmt.Errorf("%w: no challenge window open during %s", ErrInvalidPhase, g.Phase)
	}
	if err := g.mayRespond(actor); err != nil {
		return err
	}
	g.skipped[actor] = true
	if g.allOthersSkipped() {
		g.acceptPendingAction()
	}
	return nil
}

// mayRespond checks that actor is a living player other than the claimant.
func (g *Game) mayRespond(actor string) error {
	p := g.player(actor)
	if p.Eliminated() {
		return fmt.Errorf("%w: %s is eliminated", ErrNotYourTurn, actor)
	}
	if actor == g.Pending.Actor {
		return fmt.Errorf("%w: %s cannot respond to their own claim", ErrNotYourTurn, actor)
	}
	return nil
}

// allOthersSkipped reports whether every living player besides the
// claimant has passed on challenging.
func (g *Game) allOthersSkipped() bool {
	for i := range g.Players {
		p := &g.Players[i]
		if p.Eliminated() || p.Name == g.Pending.Actor {
			continue
		}
		if !g.skipped[p.Name] {
			return false
		}
	}
	return true
}

// Undecided returns the living players who still owe a response to the
// open challenge window. Used by the room actor's window timer.
func (g *Game) Undecided() []string {
	if g.Phase != PhaseChallenge {
		return nil
	}
	var names []string
	for i := range g.Players {
		p := &g.Players[i]
		if p.Eliminated() || p.Name == g.Pending.Actor || g.skipped[p.Name] {
			continue
		}
		names = append(names, p.Name)
	}
	return names
}

func (g *Game) selectTarget(actor, target string) error {
	if g.Phase != PhaseTargetSelection {
		return fmt.Errorf("%w: no target selection open during %s", ErrInvalidPhase, g.Phase)
	}
	if g.Pending.Actor != actor {
		return fmt.Errorf("%w: only %s may pick the target", ErrNotYourTurn, g.Pending.Actor)
	}
	if err := g.validateTarget(actor, target); err != nil {
		return err
	}
	g.Pending.Target = target
	g.appendLog(fmt.Sprintf("%s targets %s with %s", actor, target, g.Pending.Kind), "action", actor)
	g.applyTargetedEffect()
	return nil
}

func (g *Game) revealCard(actor string, idx int) error {
	switch g.Phase {
	case PhaseChallengeResolution:
		return g.resolveChallenge(actor, idx)
	case PhaseRevealCard:
		return g.loseRevealedCard(actor, idx)
	default:
		return fmt.Errorf("%w: no card reveal expected during %s", ErrInvalidPhase, g.Phase)
	}
}

// resolveChallenge handles the accused player's proof reveal.
func (g *Game) resolveChallenge(actor string, idx int) error {
	if g.Challenge.Challenged != actor {
		return fmt.Errorf("%w: only the accused %s may reveal", ErrNotYourTurn, g.Challenge.Challenged)
	}
	p := g.player(actor)
	if idx < 0 || idx >= len(p.Hand) {
		return fmt.Errorf("%w: %d out of range (hand size %d)", ErrInvalidCardIndex, idx, len(p.Hand))
	}
	card := p.Hand[idx]

	if card == g.Challenge.Claim {
		// Claim proven: the revealed card returns to the deck, the deck is
		// reshuffled and a replacement is drawn, so the 15-card pool stays
		// intact. The challenger now owes a card.
		p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
		g.Deck.ReturnAndReshuffle(card)
		replacement, err := g.Deck.Draw()
		if err != nil {
			return err
		}
		p.Hand = append(p.Hand, replacement)
		g.Challenge.Resolved = true
		g.Revealing = g.Challenge.Challenger
		g.Phase = PhaseRevealCard
		g.appendLog(fmt.Sprintf("%s revealed %s. Challenge failed!", actor, card), "challenge", actor)
		return nil
	}

	// Bluff exposed: the revealed card is lost for good, the pending
	// action is cancelled and any pre-paid cost is forfeit.
	g.discard(p, idx)
	g.appendLog(fmt.Sprintf("%s didn't have %s. Challenge succeeded!", actor, g.Challenge.Claim), "challenge", actor)
	g.Challenge = nil
	g.finishTurn()
	return nil
}

// loseRevealedCard handles a forced card loss: the failed challenger, or
// the victim of a Coup or Assassinate.
func (g *Game) loseRevealedCard(actor string, idx int) error {
	if g.Revealing != actor {
		return fmt.Errorf("%w: waiting on %s to reveal", ErrNotYourTurn, g.Revealing)
	}
	p := g.player(actor)
	if idx < 0 || idx >= len(p.Hand) {
		return fmt.Errorf("%w: %d out of range (hand size %d)", ErrInvalidCardIndex, idx, len(p.Hand))
	}
	card := g.discard(p, idx)
	g.appendLog(fmt.Sprintf("%s loses %s", actor, card), "reveal", actor)

	if g.Challenge != nil && g.Challenge.Resolved && g.Challenge.Challenger == actor {
		// The failed challenger has paid; the proven action still applies
		// as if unchallenged.
		g.Challenge = nil
		g.Revealing = ""
		g.acceptPendingAction()
		return nil
	}
	g.finishTurn()
	return nil
}

// acceptPendingAction applies the effect of an accepted (unchallenged or
// proven) claim, or routes to target selection if one is still missing.
func (g *Game) acceptPendingAction() {
	pa := g.Pending
	g.Challenge = nil
	g.skipped = nil

	if pa.Kind.Spec().NeedsTarget && pa.Target == "" {
		g.Revealing = ""
		g.Phase = PhaseTargetSelection
		return
	}

	switch pa.Kind {
	case Tax:
		g.player(pa.Actor).Coins += 3
		g.appendLog(fmt.Sprintf("%s takes Tax (+3 coins)", pa.Actor), "action", pa.Actor)
		g.finishTurn()
	case Exchange:
		// The claim is contestable but an accepted Exchange moves no
		// material: hands and deck stay as they are.
		g.appendLog(fmt.Sprintf("%s completes the Exchange", pa.Actor), "action", pa.Actor)
		g.finishTurn()
	case Steal, Assassinate:
		g.applyTargetedEffect()
	default:
		g.finishTurn()
	}
}

// applyTargetedEffect resolves a pending Steal or Assassinate whose target
// is known. A target eliminated while the action was in flight voids the
// effect.
func (g *Game) applyTargetedEffect() {
	pa := g.Pending
	t := g.player(pa.Target)
	if t.Eliminated() {
		g.appendLog(fmt.Sprintf("%s's %s fizzles: %s is already eliminated", pa.Actor, pa.Kind, pa.Target), "action", pa.Actor)
		g.finishTurn()
		return
	}
	switch pa.Kind {
	case Steal:
		amount := min(2, t.Coins)
		t.Coins -= amount
		g.player(pa.Actor).Coins += amount
		g.appendLog(fmt.Sprintf("%s steals %d coins from %s", pa.Actor, amount, pa.Target), "action", pa.Actor)
		g.finishTurn()
	case Assassinate:
		g.Revealing = pa.Target
		g.Phase = PhaseRevealCard
		g.appendLog(fmt.Sprintf("%s assassinates %s", pa.Actor, pa.Target), "action", pa.Actor)
	}
}

// finishTurn clears the in-flight action and opens the next player's turn.
func (g *Game) finishTurn() {
	g.Pending = nil
	g.Revealing = ""
	g.skipped = nil
	g.advanceTurn()
	g.Phase = PhaseAction
}

func (g *Game) validateTarget(actor, target string) error {
	t := g.player(target)
	if t == nil {
		return fmt.Errorf("%w: no player named %q", ErrInvalidTarget, target)
	}
	if target == actor {
		return fmt.Errorf("%w: cannot target yourself", ErrInvalidTarget)
	}
	if t.Eliminated() {
		return fmt.Errorf("%w: %s is eliminated", ErrInvalidTarget, target)
	}
	return nil
}
