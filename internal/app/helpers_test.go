package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"healthhub/internal/model"
	"healthhub/internal/paging"
	"healthhub/internal/platform/database"
	"healthhub/internal/remote"
	"healthhub/internal/repository"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type testEnv struct {
	storage       *repository.StorageRepository
	notifications *repository.NotificationRepository
	alerts        *Alerts
	log           *logrus.Logger
	hook          *test.Hook
	api           *fakeAPI
}

func newTestEnv(t *testing.T) *testEnv {
	db := createDB(t)
	logger, hook := test.NewNullLogger()
	notifications := repository.NewNotificationRepository(db)
	return &testEnv{
		storage:       repository.NewStorageRepository(db),
		notifications: notifications,
		alerts:        NewAlerts(NewDirectNotifier(notifications), logger),
		log:           logger,
		hook:          hook,
		api:           newFakeAPI(),
	}
}

func (e *testEnv) unread(t *testing.T, userID uint) []model.Notification {
	list, err := e.notifications.ListUnread(context.Background(), userID, 50)
	require.NoError(t, err)
	return list
}

var errNetwork = errors.New("connection refused")

func statusErr(op string, status int) error {
	return &remote.StatusError{Op: op, Status: status, Expected: []int{http.StatusOK}}
}

// fakeAPI stands in for the remote health API.
type fakeAPI struct {
	mu sync.Mutex

	sessionSeq   int
	createErr    error
	firstReply   json.RawMessage
	validity     map[string]bool
	validateErr  error
	deleteErr    error
	history      map[string][]map[string]any
	historyErr   error
	sendErr      error
	sendReply    func(content string) json.RawMessage
	sendHook     func(content string)
	deletedMsgs  []string
	deleteMsgErr error

	groups       []model.Group
	posts        map[int][]model.GroupPost
	comments     map[int][]model.Comment
	measurements []model.Measurement
	listErr      error

	reactionCalls []string
	reactionErr   error
	commentErr    error
	postErr       error
	reports       []model.Report

	profile      model.Profile
	profileCalls int
	profileErr   error
	updated      []model.Profile
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		validity: map[string]bool{},
		history:  map[string][]map[string]any{},
		posts:    map[int][]model.GroupPost{},
		comments: map[int][]model.Comment{},
		sendReply: func(content string) json.RawMessage {
			b, _ := json.Marshal("echo: " + content)
			return b
		},
	}
}

func (f *fakeAPI) CreateSession(_ context.Context, form model.IntakeForm) (*remote.CreatedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.sessionSeq++
	id := fmt.Sprintf("sess-%d", f.sessionSeq)
	f.validity[id] = true
	reply := f.firstReply
	if reply == nil {
		reply = json.RawMessage(`{"type":"chat","content":{"message":"Hello ` + form.Gender + `"}}`)
	}
	return &remote.CreatedSession{SessionID: id, Reply: reply}, nil
}

func (f *fakeAPI) ValidateSession(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.validateErr != nil {
		return false, f.validateErr
	}
	return f.validity[id], nil
}

func (f *fakeAPI) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.validity, id)
	return nil
}

func (f *fakeAPI) GetHistory(_ context.Context, id string) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[id], nil
}

func (f *fakeAPI) SendMessage(_ context.Context, _ string, content string) (json.RawMessage, error) {
	if f.sendHook != nil {
		f.sendHook(content)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.sendReply(content), nil
}

func (f *fakeAPI) DeleteMessage(_ context.Context, _ string, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteMsgErr != nil {
		return f.deleteMsgErr
	}
	f.deletedMsgs = append(f.deletedMsgs, messageID)
	return nil
}

func pageOf[T any](all []T, req paging.Request) paging.Page[T] {
	start := min((req.PageNumber-1)*req.PageSize, len(all))
	end := min(start+req.PageSize, len(all))
	return paging.Page[T]{
		Items:      append([]T{}, all[start:end]...),
		PageNumber: req.PageNumber,
		PageSize:   req.PageSize,
		TotalCount: len(all),
		TotalPages: max((len(all)+req.PageSize-1)/req.PageSize, 1),
	}
}

func (f *fakeAPI) ListGroups(_ context.Context, req paging.Request) (paging.Page[model.Group], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return paging.Page[model.Group]{}, f.listErr
	}
	return pageOf(f.groups, req), nil
}

func (f *fakeAPI) ListGroupPosts(_ context.Context, groupID int, req paging.Request) (paging.Page[model.GroupPost], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return paging.Page[model.GroupPost]{}, f.listErr
	}
	return pageOf(f.posts[groupID], req), nil
}

func (f *fakeAPI) ListComments(_ context.Context, postID int, req paging.Request) (paging.Page[model.Comment], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return paging.Page[model.Comment]{}, f.listErr
	}
	return pageOf(f.comments[postID], req), nil
}

func (f *fakeAPI) CreatePost(_ context.Context, groupID int, input model.PostInput) (*model.GroupPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return nil, f.postErr
	}
	post := model.GroupPost{ID: 1000 + len(f.posts[groupID]), GroupID: groupID, Title: input.Title, Content: input.Content, Status: model.StatusActive}
	f.posts[groupID] = append(f.posts[groupID], post)
	return &post, nil
}

func (f *fakeAPI) UpdatePost(_ context.Context, postID int, input model.PostInput) (*model.GroupPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return nil, f.postErr
	}
	return &model.GroupPost{ID: postID, Title: input.Title, Content: input.Content, Status: model.StatusActive}, nil
}

func (f *fakeAPI) DeletePost(context.Context, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.postErr
}

func (f *fakeAPI) CreateComment(_ context.Context, postID int, input model.CommentInput) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	c := model.Comment{ID: 500 + len(f.comments[postID]), PostID: postID, Content: input.Content, Status: model.StatusActive}
	return &c, nil
}

func (f *fakeAPI) DeleteComment(context.Context, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commentErr
}

func (f *fakeAPI) react(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactionErr != nil {
		return f.reactionErr
	}
	f.reactionCalls = append(f.reactionCalls, call)
	return nil
}

func (f *fakeAPI) CreateReaction(_ context.Context, postID int, t string) error {
	return f.react(fmt.Sprintf("create:%d:%s", postID, t))
}

func (f *fakeAPI) UpdateReaction(_ context.Context, postID int, t string) error {
	return f.react(fmt.Sprintf("update:%d:%s", postID, t))
}

func (f *fakeAPI) DeleteReaction(_ context.Context, postID int) error {
	return f.react(fmt.Sprintf("delete:%d", postID))
}

func (f *fakeAPI) CreateReport(_ context.Context, r model.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
	return nil
}

func (f *fakeAPI) GetProfile(context.Context) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p := f.profile
	return &p, nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, p model.Profile) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	f.updated = append(f.updated, p)
	f.profile = p
	return &p, nil
}

func (f *fakeAPI) ListMeasurements(_ context.Context, req paging.Request) (paging.Page[model.Measurement], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return paging.Page[model.Measurement]{}, f.listErr
	}
	return pageOf(f.measurements, req), nil
}

func (f *fakeAPI) RecordMeasurement(_ context.Context, m model.Measurement) (*model.Measurement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = len(f.measurements) + 1
	f.measurements = append(f.measurements, m)
	return &m, nil
}
