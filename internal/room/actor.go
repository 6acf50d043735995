// internal/room/actor.go
//
// Room is the serialization boundary for one game: a single goroutine
// drains a FIFO mailbox of intents and control messages, applies them to
// the engine exactly once each, and fans the resulting snapshots out to
// subscribers. Timer expiries are delivered into the same mailbox as
// synthetic messages, so they compete fairly with real client intents and
// can never race them.
package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/b6428259/spotup-games/engine"
)

// ErrRoomClosed is returned for any submission after the room finished or
// was reaped.
var ErrRoomClosed = errors.New("room closed")

// DefaultChallengeWindow is how long players get to contest a claim
// before an implicit pass is recorded for them.
const DefaultChallengeWindow = 15 * time.Second

// DefaultTurnTimeout bounds every other decision; on expiry a default
// intent is injected for the stalled player. Zero disables it.
const DefaultTurnTimeout = 60 * time.Second

const mailboxSize = 64

// Options configures a Room. Zero-value fields fall back to defaults; nil
// collaborators are disabled.
type Options struct {
	ChallengeWindow time.Duration
	TurnTimeout     time.Duration
	Reaper          Reaper
	Historian       Historian
	Archive         Archive
	Logger          *logrus.Entry
}

type msgKind uint8

const (
	msgIntent msgKind = iota
	msgStart
	msgReap
	msgSubscribe
	msgUnsubscribe
	msgChallengeTimeout
	msgTurnTimeout
)

// SubmitResult carries the outcome of one intent back to its submitter.
type SubmitResult struct {
	View View
	Err  error
}

type subscriber struct {
	player string
	ch     chan View
}

type message struct {
	kind msgKind

	intent engine.Intent
	reply  chan SubmitResult

	// expectVersion guards synthetic timer messages: a fire that was
	// scheduled against an older state is silently dropped.
	expectVersion uint64

	player   string
	subID    int
	subReply chan subscribeResult
	errCh    chan error
}

type subscribeResult struct {
	id  int
	ch  <-chan View
	err error
}

// Room owns exactly one engine.Game and is its only writer.
type Room struct {
	ID      uuid.UUID
	Players []string

	game *engine.Game

	mailbox chan message
	done    chan struct{}
	closeFn sync.Once

	subscribers map[int]subscriber
	nextSubID   int

	challengeWindow time.Duration
	turnTimeout     time.Duration
	challengeTimer  *time.Timer
	turnTimer       *time.Timer

	reaper    Reaper
	historian Historian
	archive   Archive
	onClose   []func(*Room)
	log       *logrus.Entry

	actionIndex int
}

// New creates a room for the given roster and starts its worker goroutine.
// The game stays in the lobby phase until Start is called.
func New(id uuid.UUID, players []string, seed uint64, opts Options) (*Room, error) {
	g, err := engine.NewGame(seed, players)
	if err != nil {
		return nil, err
	}
	if opts.ChallengeWindow == 0 {
		opts.ChallengeWindow = DefaultChallengeWindow
	}
	if opts.Reaper == nil {
		opts.Reaper = NopReaper{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	r := &Room{
		ID:              id,
		Players:         append([]string(nil), players...),
		game:            g,
		mailbox:         make(chan message, mailboxSize),
		done:            make(chan struct{}),
		subscribers:     make(map[int]subscriber),
		challengeWindow: opts.ChallengeWindow,
		turnTimeout:     opts.TurnTimeout,
		reaper:          opts.Reaper,
		historian:       opts.Historian,
		archive:         opts.Archive,
		log:             opts.Logger.WithField("room", id.String()),
	}
	go r.loop()
	return r, nil
}

// OnClose registers a callback invoked when the room shuts down.
// Must be called before Start.
func (r *Room) OnClose(fn func(*Room)) { r.onClose = append(r.onClose, fn) }

// Start deals the game (Lobby -> Action). Corresponds to the external
// GameStarted lifecycle signal.
func (r *Room) Start() error {
	errCh := make(chan error, 1)
	if err := r.send(message{kind: msgStart, errCh: errCh}); err != nil {
		return err
	}
	select {
	case err := <-errCh:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

// Submit queues one intent and blocks until the actor has applied or
// rejected it. Callers may block briefly behind other intents for the
// same room, never indefinitely.
func (r *Room) Submit(in engine.Intent) (View, error) {
	reply := make(chan SubmitResult, 1)
	if err := r.send(message{kind: msgIntent, intent: in, reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case res := <-reply:
		return res.View, res.Err
	case <-r.done:
		// The actor replies before it tears the room down, so a reply may
		// already be buffered even though done fired first.
		select {
		case res := <-reply:
			return res.View, res.Err
		default:
			return View{}, ErrRoomClosed
		}
	}
}

// Subscribe registers a snapshot channel for a player. Delivery is
// latest-wins: a slow consumer may miss intermediate snapshots but always
// eventually observes the newest one. The returned id cancels via
// Unsubscribe.
func (r *Room) Subscribe(player string) (int, <-chan View, error) {
	reply := make(chan subscribeResult, 1)
	if err := r.send(message{kind: msgSubscribe, player: player, subReply: reply}); err != nil {
		return 0, nil, err
	}
	select {
	case res := <-reply:
		return res.id, res.ch, res.err
	case <-r.done:
		return 0, nil, ErrRoomClosed
	}
}

// Unsubscribe removes a subscription. Safe to call after close.
func (r *Room) Unsubscribe(id int) {
	_ = r.send(message{kind: msgUnsubscribe, subID: id})
}

// Reap force-closes the room. Corresponds to the external RoomReaped
// lifecycle signal.
func (r *Room) Reap() {
	_ = r.send(message{kind: msgReap})
}

// Closed reports whether the room no longer accepts intents.
func (r *Room) Closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Done exposes the room's termination signal.
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) send(msg message) error {
	select {
	case r.mailbox <- msg:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) loop() {
	for {
		select {
		case msg := <-r.mailbox:
			r.handle(msg)
		case <-r.done:
			r.stopTimers()
			for _, sub := range r.subscribers {
				close(sub.ch)
			}
			r.subscribers = nil
			for _, fn := range r.onClose {
				fn(r)
			}
			return
		}
	}
}

func (r *Room) handle(msg message) {
	switch msg.kind {
	case msgIntent:
		r.handleIntent(msg.intent, msg.reply)
	case msgStart:
		msg.errCh <- r.handleStart()
	case msgReap:
		r.log.Info("room reaped")
		r.shutdown()
	case msgSubscribe:
		msg.subReply <- r.handleSubscribe(msg.player)
	case msgUnsubscribe:
		if sub, ok := r.subscribers[msg.subID]; ok {
			delete(r.subscribers, msg.subID)
			close(sub.ch)
		}
	case msgChallengeTimeout:
		r.handleChallengeTimeout(msg.expectVersion)
	case msgTurnTimeout:
		r.handleTurnTimeout(msg.expectVersion)
	}
}

func (r *Room) handleStart() error {
	if err := r.game.Deal(); err != nil {
		return err
	}
	r.log.WithField("players", r.Players).Info("game dealt")
	r.saveInitialState()
	r.reaper.Touch(r.ID)
	r.rearmTimers()
	r.broadcast()
	return nil
}

func (r *Room) handleIntent(in engine.Intent, reply chan SubmitResult) {
	err := r.game.Apply(in)
	if err != nil {
		// Rejections go back to the offending client only; nobody else
		// sees them and no timers move.
		if reply != nil {
			reply <- SubmitResult{Err: err}
		}
		if errors.Is(err, engine.ErrInsufficientCards) {
			// Broken invariant: more cards dealt than exist. Unrecoverable.
			r.log.WithError(err).Error("deck underflow, tearing room down")
			r.shutdown()
		}
		return
	}
	// Reply before the post-accept bookkeeping: a winning intent shuts the
	// room down in afterAccepted and the submitter still deserves the
	// final snapshot.
	if reply != nil {
		reply <- SubmitResult{View: buildView(r.ID, r.game, in.Actor)}
	}
	r.afterAccepted(in)
}

// afterAccepted runs the shared post-apply bookkeeping: activity touch,
// historian record, timer re-arm and snapshot fan-out.
func (r *Room) afterAccepted(in engine.Intent) {
	r.actionIndex++
	r.reaper.Touch(r.ID)
	r.recordAction(in)
	r.rearmTimers()
	r.broadcast()
	if r.game.Finished() {
		r.log.WithField("winner", r.game.Winner).Info("game finished")
		r.saveFinalState()
		r.shutdown()
	}
}

func (r *Room) handleSubscribe(player string) subscribeResult {
	r.nextSubID++
	id := r.nextSubID
	ch := make(chan View, 1)
	r.subscribers[id] = subscriber{player: player, ch: ch}
	// Push the current snapshot immediately so late joiners resync.
	push(ch, buildView(r.ID, r.game, player))
	return subscribeResult{id: id, ch: ch}
}

// handleChallengeTimeout records an implicit pass for every player still
// undecided when the challenge window expires.
func (r *Room) handleChallengeTimeout(expectVersion uint64) {
	if r.game.Version != expectVersion {
		return // stale fire, a real intent got there first
	}
	for _, name := range r.game.Undecided() {
		in := engine.Intent{Type: engine.IntentSkipChallenge, Actor: name}
		if err := r.game.Apply(in); err != nil {
			r.log.WithError(err).WithField("player", name).Warn("auto-skip rejected")
			continue
		}
		r.afterAccepted(in)
		if r.game.Finished() || r.game.Phase != engine.PhaseChallenge {
			return
		}
	}
}

// handleTurnTimeout injects a default intent for whoever is stalling the
// game.
func (r *Room) handleTurnTimeout(expectVersion uint64) {
	if r.game.Version != expectVersion {
		return
	}
	in, ok := r.defaultIntent()
	if !ok {
		return
	}
	if err := r.game.Apply(in); err != nil {
		r.log.WithError(err).Warn("timeout intent rejected")
		return
	}
	r.log.WithFields(logrus.Fields{"player": in.Actor, "intent": in.Type.String()}).Info("turn timed out, default intent applied")
	r.afterAccepted(in)
}

// defaultIntent picks the forced move for the phase: Income on a stalled
// turn, the first living opponent on a stalled target pick, card 0 on a
// stalled reveal.
func (r *Room) defaultIntent() (engine.Intent, bool) {
	g := r.game
	switch g.Phase {
	case engine.PhaseAction:
		return engine.Intent{Type: engine.IntentChooseAction, Actor: g.CurrentPlayer().Name, Action: "Income"}, true
	case engine.PhaseTargetSelection:
		actor := g.Pending.Actor
		for i := range g.Players {
			p := &g.Players[i]
			if p.Name != actor && !p.Eliminated() {
				return engine.Intent{Type: engine.IntentSelectTarget, Actor: actor, Target: p.Name}, true
			}
		}
	case engine.PhaseChallengeResolution:
		// Reveal the claimed card when the accused actually holds it, so a
		// timed-out honest player is not punished for being away.
		accused := g.Challenge.Challenged
		idx := 0
		for i := range g.Players {
			if g.Players[i].Name == accused {
				if at := engine.ClaimIndex(g.Challenge.Claim, g.Players[i].Hand); at >= 0 {
					idx = at
				}
				break
			}
		}
		return engine.Intent{Type: engine.IntentRevealCard, Actor: accused, CardIndex: idx}, true
	case engine.PhaseRevealCard:
		return engine.Intent{Type: engine.IntentRevealCard, Actor: g.Revealing, CardIndex: 0}, true
	}
	return engine.Intent{}, false
}

// rearmTimers cancels and re-arms the phase timers against the current
// version. A fired timer that lost the race is discarded by the version
// guard in its handler.
func (r *Room) rearmTimers() {
	r.stopTimers()
	if r.game.Finished() {
		return
	}
	version := r.game.Version
	if r.game.Phase == engine.PhaseChallenge {
		r.challengeTimer = time.AfterFunc(r.challengeWindow, func() {
			_ = r.send(message{kind: msgChallengeTimeout, expectVersion: version})
		})
		return
	}
	if r.turnTimeout > 0 {
		r.turnTimer = time.AfterFunc(r.turnTimeout, func() {
			_ = r.send(message{kind: msgTurnTimeout, expectVersion: version})
		})
	}
}

func (r *Room) stopTimers() {
	if r.challengeTimer != nil {
		r.challengeTimer.Stop()
		r.challengeTimer = nil
	}
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
}

// broadcast fans the fresh snapshot out to every subscriber, redacted per
// recipient. Latest-wins: a full channel is drained before the new
// snapshot goes in.
func (r *Room) broadcast() {
	for _, sub := range r.subscribers {
		push(sub.ch, buildView(r.ID, r.game, sub.player))
	}
}

func push(ch chan View, v View) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// recordAction publishes the accepted intent to the historian, in the
// background with a short deadline so a slow broker never stalls play.
func (r *Room) recordAction(in engine.Intent) {
	if r.historian == nil {
		return
	}
	rec := ActionRecord{
		RoomID:      r.ID,
		ActionIndex: r.actionIndex,
		Actor:       in.Actor,
		IntentType:  in.Type.String(),
		Version:     r.game.Version,
		Timestamp:   time.Now().UnixMilli(),
	}
	if in.Action != "" || in.Target != "" {
		rec.Payload = map[string]any{}
		if in.Action != "" {
			rec.Payload["action"] = in.Action
		}
		if in.Target != "" {
			rec.Payload["target"] = in.Target
		}
	}
	go func(rec ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.historian.RecordAction(ctx, rec); err != nil {
			r.log.WithError(err).WithField("actionIndex", rec.ActionIndex).Error("failed publishing action record")
		}
	}(rec)
}

func (r *Room) saveInitialState() {
	if r.archive == nil {
		return
	}
	snap := InitialState{
		DeckSize: r.game.Deck.Len(),
		Hands:    handsByName(r.game),
		Coins:    coinsByName(r.game),
		Order:    append([]string(nil), r.Players...),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.archive.SaveInitialState(ctx, r.ID, snap); err != nil {
			r.log.WithError(err).Error("failed persisting initial state")
		}
	}()
}

func (r *Room) saveFinalState() {
	if r.archive == nil {
		return
	}
	snap := FinalState{
		Winner:     r.game.Winner,
		Hands:      handsByName(r.game),
		Coins:      coinsByName(r.game),
		Version:    r.game.Version,
		FinishedAt: time.Now(),
	}
	for i := range r.game.Players {
		if r.game.Players[i].Eliminated() {
			snap.Eliminated = append(snap.Eliminated, r.game.Players[i].Name)
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.archive.SaveFinalState(ctx, r.ID, snap); err != nil {
			r.log.WithError(err).Error("failed persisting final state")
		}
	}()
}

func handsByName(g *engine.Game) map[string][]string {
	hands := make(map[string][]string, len(g.Players))
	for i := range g.Players {
		p := &g.Players[i]
		hand := make([]string, len(p.Hand))
		for j, c := range p.Hand {
			hand[j] = c.String()
		}
		hands[p.Name] = hand
	}
	return hands
}

func coinsByName(g *engine.Game) map[string]int {
	coins := make(map[string]int, len(g.Players))
	for i := range g.Players {
		coins[g.Players[i].Name] = g.Players[i].Coins
	}
	return coins
}

func (r *Room) shutdown() {
	r.closeFn.Do(func() { close(r.done) })
}

// String implements fmt.Stringer for log friendliness.
func (r *Room) String() string {
	return fmt.Sprintf("room %s (%d players)", r.ID, len(r.Players))
}
