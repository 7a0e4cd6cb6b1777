package crm

import (
	"context"
	"sync"
)

// MemoryDirectory is an in-memory Directory for tests and early development.
type MemoryDirectory struct {
	mu         sync.Mutex
	workspaces map[string]Workspace
	jobs       map[string]Job
	customers  map[string]Customer
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		workspaces: map[string]Workspace{},
		jobs:       map[string]Job{},
		customers:  map[string]Customer{},
	}
}

func (d *MemoryDirectory) PutWorkspace(w Workspace) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workspaces[w.ID] = w
}

func (d *MemoryDirectory) PutJob(j Job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs[j.ID] = j
}

func (d *MemoryDirectory) PutCustomer(c Customer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[c.ID] = c
}

func (d *MemoryDirectory) FindWorkspace(ctx context.Context, workspaceID string) (Workspace, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.workspaces[workspaceID]
	if !ok {
		return Workspace{}, ErrNotFound
	}
	return w, nil
}

func (d *MemoryDirectory) FindJob(ctx context.Context, jobID string) (Job, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	j, ok := d.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return j, nil
}

func (d *MemoryDirectory) FindCustomer(ctx context.Context, workspaceID, customerID string) (Customer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.customers[customerID]
	if !ok || c.WorkspaceID != workspaceID {
		return Customer{}, ErrNotFound
	}
	return c, nil
}
