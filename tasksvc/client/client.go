package client

import (
	"io"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/sd"
	consulsd "github.com/go-kit/kit/sd/consul"
	"github.com/go-kit/kit/sd/lb"
	"github.com/ichigozero/tasktracker/tasksvc/pkg/taskendpoint"
	"github.com/ichigozero/tasktracker/tasksvc/pkg/taskservice"
	"github.com/ichigozero/tasktracker/tasksvc/pkg/tasktransport"
)

const ServiceName = "tasksvc"

func New(apiclient consulsd.Client, logger log.Logger, retryMax int, retryTimeout time.Duration) (taskendpoint.Set, error) {
	var (
		tags        = []string{}
		passingOnly = true
		endpoints   = taskendpoint.Set{}
		instancer   = consulsd.NewInstancer(apiclient, logger, ServiceName, tags, passingOnly)
	)
	balanced := func(makeEndpoint func(taskservice.Service) endpoint.Endpoint) endpoint.Endpoint {
		factory := factoryFor(makeEndpoint, logger)
		endpointer := sd.NewEndpointer(instancer, factory, logger)
		balancer := lb.NewRoundRobin(endpointer)
		return lb.Retry(retryMax, retryTimeout, balancer)
	}

	endpoints.CreateTaskEndpoint = balanced(taskendpoint.MakeCreateTaskEndpoint)
	endpoints.TasksEndpoint = balanced(taskendpoint.MakeTasksEndpoint)
	endpoints.TaskEndpoint = balanced(taskendpoint.MakeTaskEndpoint)
	endpoints.UpdateTaskEndpoint = balanced(taskendpoint.MakeUpdateTaskEndpoint)
	endpoints.DeleteTaskEndpoint = balanced(taskendpoint.MakeDeleteTaskEndpoint)

	return endpoints, nil
}

func factoryFor(makeEndpoint func(taskservice.Service) endpoint.Endpoint, logger log.Logger) sd.Factory {
	return func(instance string) (endpoint.Endpoint, io.Closer, error) {
		service, err := tasktransport.NewHTTPClient(instance, logger)
		if err != nil {
			return nil, nil, err
		}
		return makeEndpoint(service), nil, nil
	}
}
