package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/opinionmap/opinionmap/internal/domain"
	"github.com/opinionmap/opinionmap/internal/domain/conversation"
	convmocks "github.com/opinionmap/opinionmap/internal/domain/conversation/mocks"
	"github.com/opinionmap/opinionmap/internal/domain/embedding"
	"github.com/opinionmap/opinionmap/internal/domain/matrix"
	"github.com/opinionmap/opinionmap/internal/domain/notification"
	"github.com/opinionmap/opinionmap/internal/domain/statement"
	stmtmocks "github.com/opinionmap/opinionmap/internal/domain/statement/mocks"
	"github.com/opinionmap/opinionmap/internal/domain/vote"
	votemocks "github.com/opinionmap/opinionmap/internal/domain/vote/mocks"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(conversationID uuid.UUID, event string, payload any) {
	m.Called(conversationID, event, payload)
}

type fixture struct {
	conversations *convmocks.MockRepository
	snapshots     *convmocks.MockSnapshotRepository
	votes         *votemocks.MockRepository
	statements    *stmtmocks.MockRepository
	publisher     *mockPublisher
	service       *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		conversations: convmocks.NewMockRepository(ctrl),
		snapshots:     convmocks.NewMockSnapshotRepository(ctrl),
		votes:         votemocks.NewMockRepository(ctrl),
		statements:    &stmtmocks.MockRepository{},
		publisher:     &mockPublisher{},
	}
	f.service = NewService(Repositories{
		Conversations: f.conversations,
		Snapshots:     f.snapshots,
		Votes:         f.votes,
		Statements:    f.statements,
	}, f.publisher, zerolog.Nop(), opts...)
	t.Cleanup(func() {
		f.statements.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})
	return f
}

// expectLoad primes the repositories for hydrating a stored conversation.
func (f *fixture) expectLoad(conv *conversation.Conversation, statements []statement.Statement, votes []vote.Vote) {
	f.conversations.EXPECT().GetByID(gomock.Any(), conv.ID).Return(conv, nil).Times(1)
	f.statements.On("List", mock.Anything, conv.ID).Return(statements, nil).Once()
	f.votes.EXPECT().List(gomock.Any(), conv.ID).Return(votes, nil).Times(1)
}

func storedConversation() *conversation.Conversation {
	now := time.Now().UTC()
	return &conversation.Conversation{
		ID:        uuid.New(),
		Name:      "budget",
		Settings:  fixtureSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestService_CreateConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.conversations.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	conv, err := f.service.CreateConversation(ctx, " budget ", fixtureSettings())
	require.NoError(t, err)
	assert.Equal(t, "budget", conv.Name)

	got, err := f.service.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
}

func TestService_CreateConversationInvalidSettings(t *testing.T) {
	f := newFixture(t)
	settings := fixtureSettings()
	settings.UnvotedPolicy = "mean"

	_, err := f.service.CreateConversation(context.Background(), "x", settings)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestService_GetConversationNotFound(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.conversations.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	_, err := f.service.GetConversation(context.Background(), id)
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}

func TestService_HydratesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := storedConversation()
	f.expectLoad(conv, fixtureStatements(), fixtureVotes())

	summary, err := f.service.VoteCounts(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 16, summary.Total)
	assert.Equal(t, map[int]int{0: 4, 1: 4, 2: 4, 3: 4}, summary.Counts)
	assert.Equal(t, int64(1016), summary.LastVoteTimestamp)

	statements, err := f.service.Statements(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, statements, 4)
}

func TestService_RecordVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := storedConversation()
	f.expectLoad(conv, fixtureStatements(), nil)

	batch := fixtureVotes()
	f.votes.EXPECT().Append(gomock.Any(), conv.ID, batch).Return(nil)
	f.publisher.On("Publish", conv.ID, notification.EventVotesRecorded, mock.Anything).Once()

	require.NoError(t, f.service.RecordVotes(ctx, conv.ID, batch))

	summary, err := f.service.VoteCounts(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 16, summary.Total)
}

func TestService_RecordVotesRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	batch := []vote.Vote{
		{ParticipantID: 0, StatementID: 0, Value: vote.Agree},
		{ParticipantID: 1, StatementID: 0, Value: 2},
	}

	err := f.service.RecordVotes(context.Background(), uuid.New(), batch)
	assert.ErrorIs(t, err, domain.ErrInvalidVote)
	assert.Contains(t, err.Error(), "vote 1")
}

func TestService_RecordVotesEnforcesLimits(t *testing.T) {
	f := newFixture(t, WithVoteLimits(vote.Limits{MaxParticipantID: 10, MaxStatementID: 10, MaxCells: 50}))
	ctx := context.Background()
	conv := storedConversation()
	f.expectLoad(conv, fixtureStatements(), fixtureVotes())

	huge := []vote.Vote{{ParticipantID: 1<<32 - 1, StatementID: 1<<32 - 1, Value: vote.Agree}}
	err := f.service.RecordVotes(ctx, conv.ID, huge)
	assert.ErrorIs(t, err, domain.ErrInvalidVote)
	assert.Contains(t, err.Error(), "participant id")

	// 10 × 10 cells together with the stored 4 × 4 log.
	err = f.service.RecordVotes(ctx, conv.ID, []vote.Vote{
		{ParticipantID: 9, StatementID: 0, Value: vote.Agree},
		{ParticipantID: 0, StatementID: 9, Value: vote.Agree},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidVote)
	assert.Contains(t, err.Error(), "matrix cells")

	within := []vote.Vote{{ParticipantID: 9, StatementID: 3, Value: vote.Pass}}
	f.votes.EXPECT().Append(gomock.Any(), conv.ID, within).Return(nil)
	f.publisher.On("Publish", conv.ID, notification.EventVotesRecorded, mock.Anything).Once()
	require.NoError(t, f.service.RecordVotes(ctx, conv.ID, within))

	m, err := f.service.Matrix(ctx, conv.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 10, m.Rows())
	assert.Equal(t, 4, m.Cols())
}

func TestService_StoredLogBeyondCellLimit(t *testing.T) {
	f := newFixture(t, WithVoteLimits(vote.Limits{MaxParticipantID: 10, MaxStatementID: 10, MaxCells: 50}))
	ctx := context.Background()
	conv := storedConversation()
	stored := append(fixtureVotes(), vote.Vote{ParticipantID: 1<<32 - 1, StatementID: 0, Value: vote.Agree})
	f.expectLoad(conv, fixtureStatements(), stored)

	_, err := f.service.Matrix(ctx, conv.ID, false)
	assert.ErrorIs(t, err, matrix.ErrTooLarge)

	_, err = f.service.Embedding(ctx, conv.ID)
	assert.ErrorIs(t, err, domain.ErrDegenerateInput)
}

func TestService_ConcurrentFirstAccessHydratesOnce(t *testing.T) {
	f := newFixture(t)
	conv := storedConversation()
	f.expectLoad(conv, fixtureStatements(), fixtureVotes())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.VoteCounts(context.Background(), conv.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestService_HydrationDoesNotBlockOtherConversations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slow, fast := storedConversation(), storedConversation()

	entered, release := make(chan struct{}), make(chan struct{})
	f.conversations.EXPECT().GetByID(gomock.Any(), slow.ID).DoAndReturn(
		func(context.Context, uuid.UUID) (*conversation.Conversation, error) {
			close(entered)
			<-release
			return slow, nil
		}).Times(1)
	f.statements.On("List", mock.Anything, slow.ID).Return([]statement.Statement(nil), nil).Once()
	f.votes.EXPECT().List(gomock.Any(), slow.ID).Return(nil, nil).Times(1)
	f.expectLoad(fast, fixtureStatements(), fixtureVotes())

	done := make(chan error, 1)
	go func() {
		_, err := f.service.GetConversation(ctx, slow.ID)
		done <- err
	}()
	<-entered

	got, err := f.service.GetConversation(ctx, fast.ID)
	require.NoError(t, err)
	assert.Equal(t, fast.ID, got.ID)

	close(release)
	require.NoError(t, <-done)
}

func TestService_RecordVotesPersistFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := storedConversation()
	f.expectLoad(conv, nil, nil)
	f.votes.EXPECT().Append(gomock.Any(), conv.ID, gomock.Any()).Return(errors.New("connection reset"))

	err := f.service.RecordVotes(ctx, conv.ID, []vote.Vote{{ParticipantID: 0, StatementID: 0, Value: vote.Agree}})
	require.Error(t, err)

	summary, err := f.service.VoteCounts(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
}

func TestService_Embedding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := storedConversation()
	f.expectLoad(conv, fixtureStatements(), fixtureVotes())

	f.snapshots.EXPECT().SaveSnapshot(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, snap *conversation.Snapshot) error {
			assert.Equal(t, conv.ID, snap.ConversationID)
			assert.Equal(t, int64(1016), snap.LastVoteTimestamp)
			assert.NotEmpty(t, snap.Payload)
			return nil
		}).Times(1)
	f.publisher.On("Publish", conv.ID, notification.EventEmbeddingComputed, mock.Anything).Once()

	res, err := f.service.Embedding(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, res.Embedding.Coordinates, 4)

	again, err := f.service.Embedding(ctx, conv.ID)
	require.NoError(t, err)
	assert.Same(t, res, again)
}

func TestService_EmbeddingSnapshotFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := storedConversation()
	f.expectLoad(conv, fixtureStatements(), fixtureVotes())
	f.snapshots.EXPECT().SaveSnapshot(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	f.publisher.On("Publish", conv.ID, notification.EventEmbeddingComputed, mock.Anything).Once()

	_, err := f.service.Embedding(ctx, conv.ID)
	assert.NoError(t, err)
}

func TestService_UpdateSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := storedConversation()
	f.expectLoad(conv, fixtureStatements(), fixtureVotes())

	settings := fixtureSettings()
	settings.ModerationMode = statement.ModeStrict
	f.conversations.EXPECT().UpdateSettings(gomock.Any(), conv.ID, settings).Return(nil)
	f.publisher.On("Publish", conv.ID, notification.EventSettingsUpdated, settings).Once()

	updated, err := f.service.UpdateSettings(ctx, conv.ID, settings)
	require.NoError(t, err)
	assert.Equal(t, statement.ModeStrict, updated.Settings.ModerationMode)

	m, err := f.service.Matrix(ctx, conv.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3}, m.StatementIDs())

	raw, err := f.service.Matrix(ctx, conv.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 4, raw.Cols())
}

func TestService_UpsertStatements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := storedConversation()
	f.expectLoad(conv, nil, nil)

	statements := []statement.Statement{
		{ID: 0, Moderation: statement.Approved},
		{ID: 1, Moderation: statement.Rejected, IsMeta: true},
	}
	f.statements.On("Upsert", mock.Anything, conv.ID, statements).Return(nil).Once()
	f.publisher.On("Publish", conv.ID, notification.EventStatementsUpdated, mock.Anything).Once()

	require.NoError(t, f.service.UpsertStatements(ctx, conv.ID, statements))

	b, err := f.service.Bookkeeping(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, b.ModIn)
	assert.Equal(t, []int{1}, b.ModOut)
	assert.Equal(t, []int{1}, b.Meta)
}

func TestService_VoteCountMismatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := storedConversation()
	votes := append(fixtureVotes(), vote.Vote{ParticipantID: 1, StatementID: 3, Value: vote.Agree, Modified: 3000})
	f.expectLoad(conv, fixtureStatements(), votes)

	mismatches, err := f.service.VoteCountMismatches(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []vote.CountMismatch{{ParticipantID: 1, Expected: 5, Actual: 4}}, mismatches)
}

func TestService_CorrectCentroids(t *testing.T) {
	f := newFixture(t)
	data := embedding.MathData{}

	_, err := f.service.CorrectCentroids(data, "x")
	var unknown *embedding.UnknownSourceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "unknown source 'x'", err.Error())
}
