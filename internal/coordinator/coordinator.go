package coordinator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/config"
	"github.com/aleister1102/docpipe/internal/datastore"
	"github.com/aleister1102/docpipe/internal/executor"
	"github.com/aleister1102/docpipe/internal/extractor"
	"github.com/aleister1102/docpipe/internal/models"
	"github.com/aleister1102/docpipe/internal/notifier"
	"github.com/aleister1102/docpipe/internal/reporter"
	"github.com/aleister1102/docpipe/internal/transport"
	"github.com/rs/zerolog"
)

// RunContext identifies the run a cycle executes under. The scheduler creates
// it from run history before handing control to the coordinator.
type RunContext struct {
	ID             int64
	ProcessingDate time.Time
	StartTime      time.Time
}

// gatewayFactory builds a fresh, unconnected gateway. Each cycle gets its own
// connection; nothing is pooled across cycles.
type gatewayFactory func() (transport.Gateway, error)

// CycleCoordinator drives one processing cycle through its phases: workspace
// preparation, source scan, fetch, transform, distribute, classify. It owns no
// goroutines of its own besides the distribute fan-out and is driven by one
// caller at a time.
type CycleCoordinator struct {
	cfg    *config.GlobalConfig
	logger zerolog.Logger

	tracker *datastore.FileTracker

	sourceFactory gatewayFactory
	destFactory   gatewayFactory
	extractor     extractor.Extractor
	csvReporter   *reporter.CSVReporter
	runLogWriter  *reporter.RunLogWriter
	notifier      notifier.Notifier
	actions       *executor.ParallelActionExecutor

	now func() time.Time
}

// NewCycleCoordinator wires a coordinator from configuration and the shared
// datastore.
func NewCycleCoordinator(cfg *config.GlobalConfig, store *datastore.Store, logger zerolog.Logger) *CycleCoordinator {
	moduleLogger := logger.With().Str("module", "CycleCoordinator").Logger()
	return &CycleCoordinator{
		cfg:     cfg,
		logger:  moduleLogger,
		tracker: datastore.NewFileTracker(store),
		sourceFactory: func() (transport.Gateway, error) {
			return transport.NewGateway(cfg.SourceConfig.TransferConfig, logger)
		},
		destFactory: func() (transport.Gateway, error) {
			return transport.NewGateway(cfg.DestinationConfig.TransferConfig, logger)
		},
		extractor:    extractor.NewFieldExtractor(logger),
		csvReporter:  reporter.NewCSVReporter(logger),
		runLogWriter: reporter.NewRunLogWriter(logger),
		notifier:     notifier.NewEmailNotifier(cfg.NotificationConfig, logger),
		actions: executor.NewParallelActionExecutor(
			time.Duration(config.DefaultPostActionTimeoutSecs)*time.Second,
			cfg.RetryConfig.Upload.ToPolicy(),
			logger,
		),
		now: time.Now,
	}
}

// downloadedFile pairs the remote identity with its workspace copy.
type downloadedFile struct {
	info      transport.FileInfo
	localPath string
}

// Execute runs one full cycle and returns its summary. It never panics the
// process over remote failures: anything short of a workspace or configuration
// error degrades the run instead of aborting it.
func (cc *CycleCoordinator) Execute(ctx context.Context, run RunContext) *models.RunSummary {
	summary := &models.RunSummary{
		RunID:          run.ID,
		ProcessingDate: run.ProcessingDate,
		StartTime:      run.StartTime,
		Status:         models.RunStatusActive,
	}
	cc.transition(run.ID, models.StateIdle)

	// Phase 1: workspace.
	workspace, err := cc.prepareWorkspace(run.ProcessingDate)
	if err != nil {
		return cc.fail(summary, common.WrapError(err, "workspace preparation failed"))
	}
	summary.WorkspacePath = workspace
	cc.transition(run.ID, models.StateWorkspaceReady)

	source, err := cc.connectSource(ctx)
	if err != nil {
		return cc.fail(summary, common.WrapError(err, "source connection failed"))
	}
	defer source.Close()

	// Phase 2: scan.
	files := cc.scan(source, summary)
	cc.transition(run.ID, models.StateScanned)

	// Phase 3: fetch.
	downloaded := cc.fetch(ctx, source, files, workspace, summary)
	cc.transition(run.ID, models.StateFetched)

	// Phase 4: transform.
	extracted, err := cc.transform(downloaded, workspace, summary)
	if err != nil {
		return cc.fail(summary, common.WrapError(err, "report generation failed"))
	}
	cc.transition(run.ID, models.StateTransformed)

	// Phase 5: distribute. The status and end time visible to the
	// notification and the run log reflect the pipeline up to this point;
	// post-action outcomes decide the final classification afterwards.
	summary.Status = cc.provisionalStatus(summary)
	summary.EndTime = cc.now()
	results := cc.distribute(ctx, workspace, summary)
	summary.ActionResults = results
	cc.transition(run.ID, models.StateDistributed)

	// Phase 6: classify and settle.
	summary.Status = models.ClassifyActions(results)
	cc.commitExtracted(extracted, summary)
	cc.applyRetention(summary)
	cc.backupWorkspace(workspace, run.ProcessingDate)

	summary.EndTime = cc.now()
	cc.logger.Info().
		Int64("run_id", run.ID).
		Str("status", string(summary.Status)).
		Int("files_downloaded", summary.FilesDownloaded).
		Int("records_extracted", summary.RecordsExtracted).
		Dur("duration", summary.Duration()).
		Msg("Processing cycle finished")
	return summary
}

func (cc *CycleCoordinator) transition(runID int64, state models.CycleState) {
	cc.logger.Info().Int64("run_id", runID).Str("state", string(state)).Msg("Cycle state")
}

func (cc *CycleCoordinator) fail(summary *models.RunSummary, err error) *models.RunSummary {
	summary.Status = models.RunStatusFailed
	summary.ErrorMessages = append(summary.ErrorMessages, err.Error())
	summary.EndTime = cc.now()
	cc.logger.Error().Err(err).Int64("run_id", summary.RunID).Msg("Processing cycle failed")
	return summary
}

func (cc *CycleCoordinator) prepareWorkspace(processingDate time.Time) (string, error) {
	workspace := filepath.Join(cc.cfg.StorageConfig.WorkspaceBasePath, processingDate.Format("2006-01-02"))
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return "", err
	}
	cc.logger.Info().Str("workspace", workspace).Msg("Workspace ready")
	return workspace, nil
}

func (cc *CycleCoordinator) connectSource(ctx context.Context) (transport.Gateway, error) {
	gw, err := cc.sourceFactory()
	if err != nil {
		return nil, err
	}

	outcome := cc.cfg.RetryConfig.Connect.ToPolicy().Execute(ctx, cc.logger, "connect-source", func(int) error {
		return gw.Connect(ctx)
	})
	if !outcome.Success {
		gw.Close()
		return nil, outcome.LastError
	}
	return gw, nil
}

// scan lists every configured source folder. A folder that fails to list
// contributes nothing; the cycle continues with what the others returned.
func (cc *CycleCoordinator) scan(source transport.Gateway, summary *models.RunSummary) []transport.FileInfo {
	var files []transport.FileInfo
	for _, folder := range cc.cfg.SourceConfig.Folders {
		entries, err := source.List(folder)
		if err != nil {
			cc.logger.Error().Err(err).Str("folder", folder).Msg("Folder scan failed, skipping")
			summary.ErrorMessages = append(summary.ErrorMessages, fmt.Sprintf("scan %s: %v", folder, err))
			continue
		}
		summary.FoldersScanned++
		for _, entry := range entries {
			if cc.wantedExtension(entry.Name) {
				files = append(files, entry)
			}
		}
	}
	summary.FilesFound = len(files)
	cc.logger.Info().
		Int("folders_scanned", summary.FoldersScanned).
		Int("files_found", summary.FilesFound).
		Msg("Source scan complete")
	return files
}

func (cc *CycleCoordinator) wantedExtension(name string) bool {
	extensions := cc.cfg.SourceConfig.FileExtensions
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// fetch downloads the files the tracker considers new or changed. Unchanged
// files are skipped without touching the wire; each download failure is
// isolated to its file.
func (cc *CycleCoordinator) fetch(ctx context.Context, source transport.Gateway, files []transport.FileInfo, workspace string, summary *models.RunSummary) []downloadedFile {
	transferPolicy := cc.cfg.RetryConfig.Transfer.ToPolicy()

	var downloaded []downloadedFile
	for _, file := range files {
		identity := datastore.FileIdentity{Folder: file.Folder, Filename: file.Name}

		isNew, err := cc.tracker.IsNew(identity, file.ModTime)
		if err != nil {
			cc.recordDownloadFailure(summary, file, common.WrapError(err, "tracker lookup failed"))
			continue
		}
		if !isNew {
			summary.FilesSkipped++
			continue
		}

		localPath := filepath.Join(workspace, file.Folder, file.Name)
		outcome := transferPolicy.Execute(ctx, cc.logger, "download "+file.Name, func(int) error {
			_, derr := source.Download(ctx, file.Folder, file.Name, localPath)
			return derr
		})
		if !outcome.Success {
			cc.recordDownloadFailure(summary, file, outcome.LastError)
			continue
		}

		summary.FilesDownloaded++
		summary.Downloads = append(summary.Downloads, models.DownloadResult{
			Folder:   file.Folder,
			Filename: file.Name,
			Size:     file.Size,
			Success:  true,
		})
		downloaded = append(downloaded, downloadedFile{info: file, localPath: localPath})
	}

	cc.logger.Info().
		Int("downloaded", summary.FilesDownloaded).
		Int("skipped", summary.FilesSkipped).
		Int("failed", summary.FilesFailed).
		Msg("Fetch phase complete")
	return downloaded
}

func (cc *CycleCoordinator) recordDownloadFailure(summary *models.RunSummary, file transport.FileInfo, err error) {
	summary.FilesFailed++
	msg := fmt.Sprintf("download %s/%s: %v", file.Folder, file.Name, err)
	summary.ErrorMessages = append(summary.ErrorMessages, msg)
	summary.Downloads = append(summary.Downloads, models.DownloadResult{
		Folder:   file.Folder,
		Filename: file.Name,
		Size:     file.Size,
		Success:  false,
		Error:    err.Error(),
	})
	cc.logger.Error().Err(err).Str("folder", file.Folder).Str("file", file.Name).Msg("File fetch failed")
}

// transform extracts every downloaded file and writes the report. Extraction
// failures exclude the file from the report and from tracker commits, but the
// report itself is written even when no record survived. Returns the files
// whose extraction succeeded.
func (cc *CycleCoordinator) transform(downloaded []downloadedFile, workspace string, summary *models.RunSummary) ([]downloadedFile, error) {
	var records []models.Record
	var extracted []downloadedFile

	for _, file := range downloaded {
		record, err := cc.extractor.Extract(file.localPath)
		if err != nil {
			summary.RecordsFailed++
			summary.ErrorMessages = append(summary.ErrorMessages,
				fmt.Sprintf("extract %s/%s: %v", file.info.Folder, file.info.Name, err))
			cc.logger.Error().Err(err).Str("file", file.info.Name).Msg("Extraction failed, excluding from report")
			continue
		}
		records = append(records, record)
		extracted = append(extracted, file)
	}
	summary.RecordsExtracted = len(records)

	reportPath := filepath.Join(workspace, summary.ProcessingDate.Format("20060102")+"_output.csv")
	if err := cc.csvReporter.WriteReport(records, reportPath); err != nil {
		return nil, err
	}
	summary.ReportPath = reportPath
	return extracted, nil
}

func (cc *CycleCoordinator) provisionalStatus(summary *models.RunSummary) models.RunStatus {
	if summary.FilesFailed > 0 || summary.RecordsFailed > 0 || len(summary.ErrorMessages) > 0 {
		return models.RunStatusPartialFailure
	}
	return models.RunStatusSucceeded
}

// distribute runs the three post-actions in parallel: report upload, run log,
// notification. The executor isolates their failures from each other.
func (cc *CycleCoordinator) distribute(ctx context.Context, workspace string, summary *models.RunSummary) []models.ActionResult {
	// The summary is shared read-only across the actions; the log path is
	// written back only after the join barrier. The notification send
	// carries its own retry profile; the other actions use the upload one.
	notifyPolicy := cc.cfg.RetryConfig.Notification.ToPolicy()
	var logPath string
	results := cc.actions.RunAll(ctx, []executor.Action{
		{
			Name: "distribute-report",
			Run: func(actionCtx context.Context) error {
				return cc.uploadReport(actionCtx, summary.ReportPath)
			},
		},
		{
			Name: "write-log",
			Run: func(context.Context) error {
				path, err := cc.runLogWriter.WriteRunLog(workspace, summary)
				if err != nil {
					return err
				}
				logPath = path
				return nil
			},
		},
		{
			Name:   "send-notification",
			Policy: &notifyPolicy,
			Run: func(actionCtx context.Context) error {
				return cc.notifier.NotifyRunCompletion(actionCtx, summary)
			},
		},
	})
	summary.LogPath = logPath
	return results
}

func (cc *CycleCoordinator) uploadReport(ctx context.Context, reportPath string) error {
	dest, err := cc.destFactory()
	if err != nil {
		return err
	}
	defer dest.Close()

	if err := dest.Connect(ctx); err != nil {
		return err
	}
	return dest.Upload(ctx, reportPath, filepath.Base(reportPath))
}

// commitExtracted marks successfully extracted files as processed. Files that
// downloaded but failed extraction stay uncommitted and will be fetched again
// next cycle.
func (cc *CycleCoordinator) commitExtracted(extracted []downloadedFile, summary *models.RunSummary) {
	processedAt := cc.now()
	for _, file := range extracted {
		identity := datastore.FileIdentity{Folder: file.info.Folder, Filename: file.info.Name}
		if err := cc.tracker.Commit(identity, file.info.ModTime, file.info.Size, processedAt); err != nil {
			summary.ErrorMessages = append(summary.ErrorMessages,
				fmt.Sprintf("tracker commit %s/%s: %v", file.info.Folder, file.info.Name, err))
			cc.logger.Error().Err(err).Str("file", file.info.Name).Msg("Tracker commit failed")
		}
	}
}

// applyRetention prunes old tracker rows and removes expired workspace
// folders. Both horizons are best-effort; failures never touch the run status.
func (cc *CycleCoordinator) applyRetention(summary *models.RunSummary) {
	now := cc.now()

	if days := cc.cfg.RetentionConfig.TrackerRecordDays; days > 0 {
		if _, err := cc.tracker.Prune(now.AddDate(0, 0, -days)); err != nil {
			cc.logger.Error().Err(err).Msg("Tracker prune failed")
		}
	}

	if days := cc.cfg.RetentionConfig.ReportDays; days > 0 {
		cc.cleanupWorkspaces(now.AddDate(0, 0, -days), summary.WorkspacePath)
	}
}

// cleanupWorkspaces deletes dated workspace folders older than the horizon.
// Folder names that don't parse as dates are left alone.
func (cc *CycleCoordinator) cleanupWorkspaces(olderThan time.Time, currentWorkspace string) {
	base := cc.cfg.StorageConfig.WorkspaceBasePath
	entries, err := os.ReadDir(base)
	if err != nil {
		cc.logger.Error().Err(err).Str("base", base).Msg("Workspace cleanup scan failed")
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folderDate, err := time.Parse("2006-01-02", entry.Name())
		if err != nil {
			continue
		}
		path := filepath.Join(base, entry.Name())
		if path == currentWorkspace || !folderDate.Before(olderThan) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			cc.logger.Error().Err(err).Str("path", path).Msg("Failed to remove expired workspace")
			continue
		}
		cc.logger.Info().Str("path", path).Msg("Removed expired workspace")
	}
}

// backupWorkspace copies the finished workspace under the backup base path.
// Backup failures are logged and otherwise ignored.
func (cc *CycleCoordinator) backupWorkspace(workspace string, processingDate time.Time) {
	base := cc.cfg.StorageConfig.BackupBasePath
	if base == "" {
		return
	}

	target := filepath.Join(base, processingDate.Format("2006-01-02"))
	if err := copyTree(workspace, target); err != nil {
		cc.logger.Error().Err(err).Str("target", target).Msg("Workspace backup failed")
		return
	}
	cc.logger.Info().Str("target", target).Msg("Workspace backed up")
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}
