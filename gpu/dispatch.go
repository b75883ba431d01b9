package gpu

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Completion polling backs off from minPollInterval to maxPollInterval.
const (
	minPollInterval = 50 * time.Microsecond
	maxPollInterval = 2 * time.Millisecond
)

// DispatchDescriptor describes one compute pass: a pipeline, the bind
// groups set at indices 0..n-1 and the workgroup counts.
type DispatchDescriptor struct {
	Label      string
	Pipeline   ComputePipelineHandle
	BindGroups []BindGroupHandle
	Workgroups [3]uint32
}

// Dispatch records desc into a command buffer, submits it on the device
// queue and waits for completion. The wait is bounded by the context
// deadline, or by Config.FenceTimeout when ctx has none.
func (d *Device) Dispatch(ctx context.Context, desc DispatchDescriptor) error {
	if err := d.checkLive(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	label := desc.Label
	if label == "" {
		label = "dispatch"
	}

	rec, err := d.encode(label, func(encoder hal.CommandEncoder) {
		d.recordComputePass(encoder, label, desc)
	})
	if err != nil {
		return err
	}
	if err := d.submitAndWait(ctx, label, rec); err != nil {
		return err
	}

	slogger().Debug("gpu: dispatched", "label", label,
		"workgroups", desc.Workgroups, "bind_groups", len(desc.BindGroups))
	return nil
}

// recordComputePass resolves the pipeline and bind groups under the pools'
// shared locks and records one compute pass.
func (d *Device) recordComputePass(encoder hal.CommandEncoder, label string, desc DispatchDescriptor) {
	pipelines := d.computePipelines.Resources()
	defer pipelines.Release()
	groups := d.bindGroups.Resources()
	defer groups.Release()

	pipeline := pipelines.Get(desc.Pipeline)
	bindGroups := make([]hal.BindGroup, len(desc.BindGroups))
	for i, g := range desc.BindGroups {
		bindGroups[i] = groups.Get(g)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: label})
	pass.SetPipeline(pipeline)
	for i, bg := range bindGroups {
		pass.SetBindGroup(uint32(i), bg, nil) //nolint:gosec // bounded by MaxBindGroups
	}
	pass.Dispatch(desc.Workgroups[0], desc.Workgroups[1], desc.Workgroups[2])
	pass.End()
}

// ReadBuffer copies len(dst) bytes from the start of buffer h into dst.
// The data goes through a host-visible staging buffer; the call blocks
// until the copy has completed on the GPU, bounded like Dispatch.
func (d *Device) ReadBuffer(ctx context.Context, h BufferHandle, dst []byte) error {
	if err := d.checkLive(); err != nil {
		return err
	}
	if len(dst) == 0 {
		return nil
	}
	size := uint64(len(dst))
	bufSize := d.buffers.Size(h)
	if size > bufSize {
		return fmt.Errorf("gpu: read %d bytes from %s of %d bytes", size, h, bufSize)
	}
	// Copy sizes must be multiples of 4.
	copySize := min(roundUp4(size), bufSize)

	label := "readback " + h.String()
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  copySize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: %s: create staging buffer: %w", label, err)
	}
	defer d.device.DestroyBuffer(staging)

	rec, err := d.encode(label, func(encoder hal.CommandEncoder) {
		bufs := d.buffers.Resources()
		defer bufs.Release()
		encoder.CopyBufferToBuffer(bufs.Get(h), staging, []hal.BufferCopy{{Size: copySize}})
	})
	if err != nil {
		return err
	}
	if err := d.submitAndWait(ctx, label, rec); err != nil {
		return err
	}

	mapping, err := d.device.MapBuffer(staging, 0, copySize)
	if err != nil {
		return fmt.Errorf("gpu: %s: map staging buffer: %w", label, err)
	}
	copy(dst, unsafe.Slice((*byte)(mapping.Ptr), size))
	if err := d.device.UnmapBuffer(staging); err != nil {
		return fmt.Errorf("gpu: %s: unmap staging buffer: %w", label, err)
	}
	return nil
}

func roundUp4(n uint64) uint64 { return (n + 3) &^ 3 }

// recording is an encoded command buffer and the encoder that owns it.
// Both stay alive until the GPU has finished executing the commands.
type recording struct {
	device  hal.Device
	encoder hal.CommandEncoder
	cmdBuf  hal.CommandBuffer
}

func (r *recording) release() {
	r.device.FreeCommandBuffer(r.cmdBuf)
	r.encoder.Destroy()
}

// encode records commands with record into a fresh command buffer.
func (d *Device) encode(label string, record func(hal.CommandEncoder)) (*recording, error) {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("gpu: %s: create command encoder: %w", label, err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		encoder.Destroy()
		return nil, fmt.Errorf("gpu: %s: begin encoding: %w", label, err)
	}

	record(encoder)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.Destroy()
		return nil, fmt.Errorf("gpu: %s: end encoding: %w", label, err)
	}
	return &recording{device: d.device, encoder: encoder, cmdBuf: cmdBuf}, nil
}

// submitAndWait submits rec and waits until the queue reports its
// submission index as completed. The recording is released once the GPU
// is done with it; after a timeout it is left to the device.
func (d *Device) submitAndWait(ctx context.Context, label string, rec *recording) error {
	index, err := d.queue.Submit([]hal.CommandBuffer{rec.cmdBuf})
	if err != nil {
		rec.release()
		return fmt.Errorf("gpu: %s: submit: %w", label, err)
	}
	if err := d.waitSubmission(ctx, label, index); err != nil {
		return err
	}
	rec.release()
	return nil
}

// waitSubmission polls the queue until index has completed. It gives up
// when ctx is done or after FenceTimeout.
func (d *Device) waitSubmission(ctx context.Context, label string, index uint64) error {
	timeout := d.config.FenceTimeout
	if timeout <= 0 {
		timeout = DefaultFenceTimeout
	}
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok {
		deadline = ctxDeadline
	}

	delay := minPollInterval
	for d.queue.PollCompleted() < index {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if _, ok := ctx.Deadline(); ok {
				return context.DeadlineExceeded
			}
			return fmt.Errorf("gpu: %s: GPU timeout after %v", label, timeout)
		}

		timer := time.NewTimer(min(delay, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, maxPollInterval)
	}
	return nil
}
