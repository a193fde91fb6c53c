package client

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tutorly/pkg/logger"
)

const (
	DefaultTimeout            = 10 * time.Second
	DefaultMaxConcurrentCalls = 40
)

type Options struct {
	BaseURL            string
	Timeout            time.Duration
	MaxConcurrentCalls int
	Log                *logger.Logger
}

// Client groups the typed tutoring API clients and the optional Mongo connection.
type Client struct {
	API          *HttpClient
	Tutors       *TutorClient
	Users        *UserClient
	Availability *AvailabilityClient
	Classes      *ClassClient
	Enrollments  *EnrollmentClient
	Sessions     *SessionClient
	Evaluations  *EvaluationClient
	Progress     *ProgressClient

	Mongo *mongo.Client
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxConcurrentCalls <= 0 {
		opts.MaxConcurrentCalls = DefaultMaxConcurrentCalls
	}
	if opts.Log == nil {
		opts.Log = logger.Discard()
	}

	api := NewHttpClient(opts.BaseURL, opts.Timeout, NewLimiter(opts.MaxConcurrentCalls), opts.Log)
	return &Client{
		API:          api,
		Tutors:       &TutorClient{api: api, log: opts.Log},
		Users:        &UserClient{api: api},
		Availability: &AvailabilityClient{api: api, log: opts.Log},
		Classes:      &ClassClient{api: api, log: opts.Log},
		Enrollments:  &EnrollmentClient{api: api, log: opts.Log},
		Sessions:     &SessionClient{api: api},
		Evaluations:  &EvaluationClient{api: api, log: opts.Log},
		Progress:     &ProgressClient{api: api, log: opts.Log},
	}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	if c.Mongo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Mongo.Disconnect(ctx); err != nil {
		log.Error("Failed to disconnect from MongoDB", "error", err)
		return
	}
	log.Info("Disconnected from MongoDB")
}
