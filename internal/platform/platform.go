// Package platform provisions the GPU container that runs the toolkit UI.
//
// The managed-compute side of the deployment (image building, GPU
// allocation, volume persistence, HTTP exposure) is delegated to the
// container platform; this package talks to it through the Docker API. It
// creates one container from a prebuilt toolkit image with the two durable
// named volumes mounted at their fixed paths, a GPU device request, the UI
// port published, and an unless-stopped restart policy; container-level
// restart is the documented recovery mechanism for a crashed server.
package platform

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/ostrisops/aikit/internal/config"
	"github.com/ostrisops/aikit/internal/logger"
)

const (
	// managedLabel marks containers created by aikit.
	managedLabel = "aikit.managed"

	// stopTimeoutSeconds is the graceful-stop window before the platform
	// sends SIGKILL. Long enough for the UI to flush in-flight writes.
	stopTimeoutSeconds = 30
)

// VolumeMount binds a named durable volume to a container path.
type VolumeMount struct {
	// Name is the platform-side volume name. Created on first reference.
	Name string

	// Target is the fixed container path the volume is mounted at.
	Target string
}

// Spec describes the container to provision.
type Spec struct {
	// Name is the container name.
	Name string

	// Image is the prebuilt toolkit image.
	Image string

	// Port is the UI port, published on all interfaces.
	Port int

	// Env is the environment record for the container process.
	Env []string

	// GPUs selects GPU devices: "all", a decimal count, or empty for no
	// GPU request.
	GPUs string

	// Volumes are the durable volumes to mount.
	Volumes []VolumeMount
}

// SpecFor derives the container spec from the application config.
func SpecFor(cfg *config.Config) Spec {
	return Spec{
		Name:  cfg.Container.Name,
		Image: cfg.Container.Image,
		Port:  cfg.Server.Port,
		Env:   cfg.Environ(),
		GPUs:  cfg.Container.GPUs,
		Volumes: []VolumeMount{
			{Name: cfg.Volumes.OutputName, Target: cfg.Volumes.OutputMount},
			{Name: cfg.Volumes.CacheName, Target: cfg.Volumes.CacheMount},
		},
	}
}

// ContainerInfo is a snapshot of a provisioned container's state.
type ContainerInfo struct {
	ID      string
	Name    string
	Image   string
	State   string
	Status  string
	Port    int
	Created time.Time
}

// Provisioner manages the toolkit container through the Docker API.
type Provisioner struct {
	client *client.Client
}

// NewProvisioner creates a provisioner connected to the Docker daemon.
//
// The client respects DOCKER_HOST, DOCKER_TLS_VERIFY and DOCKER_CERT_PATH,
// negotiates the API version, and the daemon is pinged with a short timeout
// so a misconfigured environment fails fast.
func NewProvisioner() (*Provisioner, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("Docker daemon is not accessible: %w", err)
	}

	return &Provisioner{client: cli}, nil
}

// Close releases the Docker client.
func (p *Provisioner) Close() error {
	return p.client.Close()
}

// Up provisions and starts the toolkit container.
//
// The image is pulled if not present locally. An existing container with
// the same name must be removed first (aikit down); Up does not replace it.
func (p *Provisioner) Up(ctx context.Context, spec Spec) (string, error) {
	if existing, err := p.find(ctx, spec.Name); err != nil {
		return "", err
	} else if existing != nil {
		return "", fmt.Errorf("container %s already exists (state: %s); run down first",
			spec.Name, existing.State)
	}

	if err := p.EnsureImage(ctx, spec.Image); err != nil {
		return "", err
	}

	deviceRequests, err := gpuDeviceRequests(spec.GPUs)
	if err != nil {
		return "", err
	}

	exposedPorts, portBindings := portConfig(spec.Port)

	containerConfig := &container.Config{
		Image:        spec.Image,
		Env:          spec.Env,
		ExposedPorts: exposedPorts,
		Labels:       buildLabels(spec),
	}

	hostConfig := &container.HostConfig{
		Mounts:       volumeMounts(spec.Volumes),
		PortBindings: portBindings,
		Resources: container.Resources{
			DeviceRequests: deviceRequests,
		},
		// Container-level restart is the sole recovery mechanism for a
		// crashed server; the boot wrapper does not supervise by default.
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyUnlessStopped,
		},
	}

	resp, err := p.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	logger.Info("Created container %s (%s)", spec.Name, shortID(resp.ID))

	if err := p.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container: %w", err)
	}

	logger.Info("Container started: %s", spec.Name)

	return resp.ID, nil
}

// Down gracefully stops and removes the toolkit container. The durable
// volumes are never removed.
func (p *Provisioner) Down(ctx context.Context, name string) error {
	c, err := p.find(ctx, name)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("container not found: %s", name)
	}

	logger.Info("Stopping container %s (%s)", name, shortID(c.ID))

	timeout := stopTimeoutSeconds
	if err := p.client.ContainerStop(ctx, c.ID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}

	if err := p.client.ContainerRemove(ctx, c.ID, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}

	logger.Info("Container removed: %s", name)

	return nil
}

// Status returns every aikit-managed container, running or not.
func (p *Provisioner) Status(ctx context.Context) ([]ContainerInfo, error) {
	containers, err := p.client.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", managedLabel+"=true"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	infos := make([]ContainerInfo, 0, len(containers))
	for _, c := range containers {
		info := ContainerInfo{
			ID:      c.ID,
			Image:   c.Image,
			State:   c.State,
			Status:  c.Status,
			Created: time.Unix(c.Created, 0),
		}
		if len(c.Names) > 0 {
			info.Name = trimSlash(c.Names[0])
		}
		for _, pm := range c.Ports {
			if pm.PublicPort != 0 {
				info.Port = int(pm.PublicPort)
				break
			}
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos, nil
}

// Logs streams container logs to w. The Docker log stream multiplexes
// stdout and stderr with framing headers; callers use the stdcopy demuxer.
func (p *Provisioner) Logs(ctx context.Context, name string, follow bool) (io.ReadCloser, error) {
	c, err := p.find(ctx, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("container not found: %s", name)
	}

	reader, err := p.client.ContainerLogs(ctx, c.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Timestamps: false,
		Tail:       "all",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get container logs: %w", err)
	}

	return reader, nil
}

// find locates an aikit-managed container by name. Returns nil when no such
// container exists.
func (p *Provisioner) find(ctx context.Context, name string) (*container.Summary, error) {
	containers, err := p.client.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", managedLabel+"=true"),
			filters.Arg("name", name),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	for i := range containers {
		for _, n := range containers[i].Names {
			if trimSlash(n) == name {
				return &containers[i], nil
			}
		}
	}

	return nil, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func trimSlash(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}
	return name
}

// portConfig builds the exposed-port set and host binding for the UI port.
func portConfig(port int) (nat.PortSet, nat.PortMap) {
	if port <= 0 {
		return nil, nil
	}

	containerPort := nat.Port(fmt.Sprintf("%d/tcp", port))
	exposed := nat.PortSet{containerPort: struct{}{}}
	bindings := nat.PortMap{
		containerPort: []nat.PortBinding{
			{
				HostIP:   "0.0.0.0",
				HostPort: fmt.Sprintf("%d", port),
			},
		},
	}

	return exposed, bindings
}

// volumeMounts converts the spec's volume bindings into Docker mounts. The
// volumes are named (not anonymous) so they are created on first reference
// and survive container removal.
func volumeMounts(vols []VolumeMount) []mount.Mount {
	mounts := make([]mount.Mount, 0, len(vols))
	for _, v := range vols {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeVolume,
			Source: v.Name,
			Target: v.Target,
		})
	}
	return mounts
}

// buildLabels builds the container labels used for discovery.
func buildLabels(spec Spec) map[string]string {
	return map[string]string{
		managedLabel:  "true",
		"aikit.name":  spec.Name,
		"aikit.image": spec.Image,
		"aikit.port":  fmt.Sprintf("%d", spec.Port),
	}
}

// gpuDeviceRequests builds the GPU device request from the config string:
// "all" requests every GPU, a decimal requests that many, empty requests
// none.
func gpuDeviceRequests(gpus string) ([]container.DeviceRequest, error) {
	if gpus == "" {
		return nil, nil
	}

	req := container.DeviceRequest{
		Driver:       "nvidia",
		Capabilities: [][]string{{"gpu"}},
	}

	if gpus == "all" {
		req.Count = -1
	} else {
		var n int
		if _, err := fmt.Sscanf(gpus, "%d", &n); err != nil || n < 1 {
			return nil, fmt.Errorf("invalid gpus value: %q (use \"all\" or a positive count)", gpus)
		}
		req.Count = n
	}

	return []container.DeviceRequest{req}, nil
}
