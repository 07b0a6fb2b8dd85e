package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// filesUploadedTotal 记录成功上传的文件总数
	filesUploadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filebin_files_uploaded_total",
		Help: "Total number of files uploaded successfully",
	})

	// uploadBytesTotal 记录成功写入的字节总数
	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filebin_upload_bytes_total",
		Help: "Total number of bytes written by successful uploads",
	})

	// uploadsRejectedTotal 记录被拒绝的上传，按原因区分
	uploadsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filebin_uploads_rejected_total",
			Help: "Total number of rejected uploads",
		},
		[]string{"reason"},
	)

	// filesDeletedTotal 记录删除的文件总数
	filesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filebin_files_deleted_total",
		Help: "Total number of files deleted",
	})

	// blobAbsentOnDeleteTotal 记录删除时落盘文件已缺失的次数。
	// 删除本身按幂等成功处理，但这个信号需要单独可观测。
	blobAbsentOnDeleteTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filebin_blob_absent_on_delete_total",
		Help: "Deletes where the blob was already gone from disk",
	})

	// consistencyFaultsTotal 记录元数据存在但落盘文件缺失的一致性故障
	consistencyFaultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filebin_consistency_faults_total",
		Help: "Reads that found a registry record without its blob",
	})
)
